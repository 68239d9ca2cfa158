package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedUtils "github.com/davicafu/scavhunt/internal/shared/infra/utils"
)

// AnalyticsConsumer vuelca los eventos del topic hunt en el repositorio analítico.
type AnalyticsConsumer struct {
	analytics huntDomain.HuntAnalyticsRepository
	log       *zap.Logger
}

func NewAnalyticsConsumer(analytics huntDomain.HuntAnalyticsRepository, logger *zap.Logger) *AnalyticsConsumer {
	return &AnalyticsConsumer{
		analytics: analytics,
		log:       logger,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *AnalyticsConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event for hunt", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case huntDomain.HuntCreated:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt sharedEvents.HuntCreated) {
			c.record(ctx, huntDomain.HuntActivity{
				HuntID: evt.ID, EventType: base.Type, Difficulty: evt.Difficulty, OccurredAt: base.Timestamp,
			})
		})

	case huntDomain.HuntUpdated:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt sharedEvents.HuntUpdated) {
			c.record(ctx, huntDomain.HuntActivity{
				HuntID: evt.ID, EventType: base.Type, Difficulty: evt.Difficulty, Completed: evt.Completed, OccurredAt: base.Timestamp,
			})
		})

	case huntDomain.HuntDeleted:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt sharedEvents.HuntDeleted) {
			c.record(ctx, huntDomain.HuntActivity{
				HuntID: evt.ID, EventType: base.Type, OccurredAt: base.Timestamp,
			})
		})

	default:
		c.log.Warn("Unknown hunt event type", zap.String("type", base.Type), zap.String("key", key))
	}
}

func (c *AnalyticsConsumer) record(ctx context.Context, a huntDomain.HuntActivity) {
	c.withContext(ctx, a.HuntID, func(ctxHunt context.Context) error {
		return c.analytics.LogBatch(ctxHunt, []huntDomain.HuntActivity{a})
	}, a.EventType)
}

// Helper para ejecutar acción con contexto limitado y log.
func (c *AnalyticsConsumer) withContext(ctx context.Context, id uuid.UUID, action func(ctx context.Context) error, eventType string) {
	ctxHunt, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := action(ctxHunt); err != nil {
		c.log.Warn("Failed to record hunt activity",
			zap.String("hunt_id", id.String()),
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("Hunt activity recorded", zap.String("hunt_id", id.String()), zap.String("type", eventType))
}
