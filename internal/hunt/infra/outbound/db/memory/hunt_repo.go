package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/docstore"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// HuntRepoMemory guarda las hunts en un docstore y mantiene su propio outbox.
// Se usa cuando no hay Mongo configurado y en los tests.
type HuntRepoMemory struct {
	store *docstore.Store

	mu     sync.Mutex
	outbox map[uuid.UUID]sharedDomain.OutboxEvent
}

func NewHuntRepoMemory(store *docstore.Store) *HuntRepoMemory {
	return &HuntRepoMemory{store: store, outbox: make(map[uuid.UUID]sharedDomain.OutboxEvent)}
}

// --- Lectura ---

func (r *HuntRepoMemory) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	return r.store.Find(ctx, d)
}

func (r *HuntRepoMemory) Count(ctx context.Context, filter query.Filter) (int64, error) {
	return r.store.Count(ctx, huntDomain.Collection, filter)
}

func (r *HuntRepoMemory) GetByID(ctx context.Context, id uuid.UUID) (*huntDomain.Hunt, error) {
	doc, err := r.store.Get(ctx, huntDomain.Collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, huntDomain.ErrHuntNotFound
		}
		return nil, err
	}
	return huntDomain.FromDocument(doc)
}

// --- Escritura + outbox ---

func (r *HuntRepoMemory) Create(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	if err := r.store.Insert(ctx, huntDomain.Collection, huntDomain.ToDocument(h)); err != nil {
		if errors.Is(err, docstore.ErrDuplicateID) {
			return huntDomain.ErrHuntAlreadyExists
		}
		return err
	}
	r.saveOutbox(evt)
	return nil
}

func (r *HuntRepoMemory) Update(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	if err := r.store.Replace(ctx, huntDomain.Collection, h.ID.String(), huntDomain.ToDocument(h)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return huntDomain.ErrHuntNotFound
		}
		return err
	}
	r.saveOutbox(evt)
	return nil
}

func (r *HuntRepoMemory) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	if err := r.store.Delete(ctx, huntDomain.Collection, id.String()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return huntDomain.ErrHuntNotFound
		}
		return err
	}
	r.saveOutbox(evt)
	return nil
}

// ---------------- Patrón Outbox en Eventos-----------------

func (r *HuntRepoMemory) saveOutbox(evt sharedDomain.OutboxEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outbox[evt.ID] = evt
}

func (r *HuntRepoMemory) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []sharedDomain.OutboxEvent
	for _, evt := range r.outbox {
		if !evt.Processed {
			events = append(events, evt)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *HuntRepoMemory) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	evt, ok := r.outbox[id]
	if !ok {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	evt.Processed = true
	r.outbox[id] = evt
	return nil
}

// Verificación en tiempo de compilación.
var (
	_ huntDomain.HuntRepository     = (*HuntRepoMemory)(nil)
	_ sharedDomain.OutboxRepository = (*HuntRepoMemory)(nil)
)
