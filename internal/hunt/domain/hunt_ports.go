package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

var (
	ErrHuntNotFound      = fmt.Errorf("hunt %w", sharedDomain.ErrNotFound)
	ErrHuntAlreadyExists = fmt.Errorf("hunt %w", sharedDomain.ErrConflict)
)

// Collection es el destino de almacenamiento de los descriptores de hunts.
const Collection = "hunts"

// --- Repositorio de Hunts ---
type HuntRepository interface {
	Find(ctx context.Context, d query.Descriptor) ([]query.Document, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Hunt, error)
	Create(ctx context.Context, h *Hunt, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, h *Hunt, evt sharedDomain.OutboxEvent) error
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
}

// HuntActivity es una fila del registro analítico de eventos de hunts.
type HuntActivity struct {
	HuntID     uuid.UUID
	EventType  string
	Difficulty string
	Completed  bool
	OccurredAt time.Time
}

// DTO para transportar los resultados de la consulta de tendencia.
type DailyHuntTrend struct {
	Day            time.Time `json:"day"`
	CreatedCount   int       `json:"created"`
	CompletedCount int       `json:"completed"`
	DeletedCount   int       `json:"deleted"`
}

type HuntAnalyticsRepository interface {
	LogBatch(ctx context.Context, activity []HuntActivity) error
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyHuntTrend, error)
}

// HuntSeedStorage lee hunts de un volcado para importarlas.
type HuntSeedStorage interface {
	Load(ctx context.Context) ([]*Hunt, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

func HuntCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("hunt:id:%s", id.String())
}
