package mongodb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedMongo "github.com/davicafu/scavhunt/internal/shared/infra/platform/db/mongodb"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// HuntRepoMongoDB implementa HuntRepository. Las escrituras y su evento de
// outbox van en la misma transacción, por lo que requiere un replica set.
type HuntRepoMongoDB struct {
	client     *mongo.Client
	db         *mongo.Database
	huntsColl  *mongo.Collection
	outboxColl *mongo.Collection
}

func NewHuntRepoMongoDB(client *mongo.Client, dbName string) *HuntRepoMongoDB {
	db := client.Database(dbName)
	return &HuntRepoMongoDB{
		client:     client,
		db:         db,
		huntsColl:  db.Collection(huntDomain.Collection),
		outboxColl: db.Collection(sharedMongo.OutboxCollection),
	}
}

// --- Lectura ---

// Find ejecuta el descriptor tal cual: filtro, orden, proyección y ventana.
func (r *HuntRepoMongoDB) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	cursor, err := r.db.Collection(d.Target).Find(ctx, sharedMongo.FilterToBSON(d.Filter), sharedMongo.FindOptions(d))
	if err != nil {
		return nil, sharedMongo.Classify(err)
	}
	defer cursor.Close(ctx)

	docs := []query.Document{}
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		docs = append(docs, sharedMongo.ToDocument(m))
	}
	if err := cursor.Err(); err != nil {
		return nil, sharedMongo.Classify(err)
	}
	return docs, nil
}

func (r *HuntRepoMongoDB) Count(ctx context.Context, filter query.Filter) (int64, error) {
	n, err := r.huntsColl.CountDocuments(ctx, sharedMongo.FilterToBSON(filter))
	if err != nil {
		return 0, sharedMongo.Classify(err)
	}
	return n, nil
}

func (r *HuntRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*huntDomain.Hunt, error) {
	var m bson.M
	err := r.huntsColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, huntDomain.ErrHuntNotFound
		}
		return nil, sharedMongo.Classify(err)
	}
	return huntDomain.FromDocument(sharedMongo.ToDocument(m))
}

// --- CRUD Transaccional ---

func (r *HuntRepoMongoDB) Create(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.huntsColl.InsertOne(sessCtx, huntDomain.ToDocument(h)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return huntDomain.ErrHuntAlreadyExists
			}
			return err
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *HuntRepoMongoDB) Update(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.huntsColl.ReplaceOne(sessCtx, bson.M{"_id": h.ID.String()}, huntDomain.ToDocument(h))
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return huntDomain.ErrHuntNotFound
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *HuntRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.huntsColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return huntDomain.ErrHuntNotFound
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *HuntRepoMongoDB) withTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return sharedMongo.Classify(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return sharedMongo.Classify(err)
}

// Verificación en tiempo de compilación.
var _ huntDomain.HuntRepository = (*HuntRepoMongoDB)(nil)

// EnsureIndexes crea los índices que usan el orden por defecto y el relay del outbox.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(huntDomain.Collection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "difficulty", Value: 1}}},
	})
	if err != nil {
		return sharedMongo.Classify(err)
	}

	_, err = db.Collection(sharedMongo.OutboxCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return sharedMongo.Classify(err)
}
