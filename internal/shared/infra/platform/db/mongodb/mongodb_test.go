package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

func TestFilterToBSON_GroupsOperatorsByField(t *testing.T) {
	filter := query.Filter{
		{Field: "difficulty", Op: sharedDomain.OpEq, Value: "easy"},
		{Field: "numOfPlayers", Op: sharedDomain.OpGte, Value: int64(4)},
		{Field: "numOfPlayers", Op: sharedDomain.OpLt, Value: int64(10)},
	}

	got := FilterToBSON(filter)

	want := bson.D{
		{Key: "difficulty", Value: bson.D{{Key: "$eq", Value: "easy"}}},
		{Key: "numOfPlayers", Value: bson.D{{Key: "$gte", Value: int64(4)}, {Key: "$lt", Value: int64(10)}}},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, FilterToBSON(nil))
}

func TestSortAndProjectionToBSON(t *testing.T) {
	sort := SortToBSON([]query.SortField{{Field: "title"}, {Field: "createdAt", Desc: true}})
	assert.Equal(t, bson.D{{Key: "title", Value: 1}, {Key: "createdAt", Value: -1}}, sort)

	proj := ProjectionToBSON(query.Projection{Mode: query.Exclude, Fields: []string{"__v"}})
	assert.Equal(t, bson.D{{Key: "__v", Value: 0}}, proj)
}

func TestFindOptions(t *testing.T) {
	d := query.Descriptor{
		Target:     "hunts",
		Sort:       []query.SortField{{Field: "createdAt", Desc: true}},
		Projection: &query.Projection{Mode: query.Include, Fields: []string{"title"}},
		Page:       &query.Page{Number: 3, Size: 10, Skip: 20},
	}

	opts := FindOptions(d)

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, opts.Projection)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)

	empty := FindOptions(query.Descriptor{Target: "hunts"})
	assert.Nil(t, empty.Sort)
	assert.Nil(t, empty.Projection)
	assert.Nil(t, empty.Skip)
	assert.Nil(t, empty.Limit)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	plain := errors.New("duplicate key")
	assert.Same(t, plain, Classify(plain))

	for _, cause := range []error{
		mongo.ErrClientDisconnected,
		fmt.Errorf("find: %w", context.DeadlineExceeded),
	} {
		err := Classify(cause)
		assert.ErrorIs(t, err, sharedDomain.ErrStorageUnavailable, cause.Error())
		assert.ErrorIs(t, err, cause)
	}
}

func TestNormalizePayload(t *testing.T) {
	payload := bson.D{
		{Key: "title", Value: "Parque"},
		{Key: "items", Value: bson.A{bson.D{{Key: "name", Value: "banco"}}}},
		{Key: "createdAt", Value: time.Unix(0, 0).UTC()},
	}

	got := normalize(payload)

	assert.Equal(t, map[string]interface{}{
		"title":     "Parque",
		"items":     []interface{}{map[string]interface{}{"name": "banco"}},
		"createdAt": time.Unix(0, 0).UTC(),
	}, got)
}

func TestToDocument_ConvertsDates(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := ToDocument(bson.M{"_id": "x", "startDate": primitive.NewDateTimeFromTime(when)})

	assert.Equal(t, query.Document{"_id": "x", "startDate": when}, doc)
}
