package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
)

func TestJSONHuntStorage_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hunts.json")
	storage := NewJSONHuntStorage(path)

	empty, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	h := &huntDomain.Hunt{
		ID: uuid.New(), Title: "Casco antiguo", Description: "d", Difficulty: "medium",
		Items:     []huntDomain.Item{{Name: "fuente", Clue: "agua", Image: "image"}},
		StartDate: start, EndDate: start.Add(time.Hour), Participants: []string{},
	}
	require.NoError(t, storage.Save(ctx, []*huntDomain.Hunt{h}))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, h, loaded[0])
}

func TestJSONHuntStorage_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hunts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewJSONHuntStorage(path).Load(context.Background())
	assert.Error(t, err)
}
