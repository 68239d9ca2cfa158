package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedUtils "github.com/davicafu/scavhunt/internal/shared/infra/utils"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
)

// UserHuntLinker es la parte del servicio de usuarios que necesita este consumer.
type UserHuntLinker interface {
	AttachHunt(ctx context.Context, userID uuid.UUID, huntID string) error
	DetachHunt(ctx context.Context, userID uuid.UUID, huntID string) error
}

// HuntConsumer mantiene la lista de hunts de cada usuario a partir del topic hunt.
type HuntConsumer struct {
	users UserHuntLinker
	log   *zap.Logger
}

func NewHuntConsumer(users UserHuntLinker, logger *zap.Logger) *HuntConsumer {
	return &HuntConsumer{
		users: users,
		log:   logger,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *HuntConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event for user", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case huntDomain.HuntCreated:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt sharedEvents.HuntCreated) {
			c.link(ctx, evt.CreatedBy, evt.ID, base.Type, c.users.AttachHunt)
		})

	case huntDomain.HuntDeleted:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt sharedEvents.HuntDeleted) {
			c.link(ctx, evt.CreatedBy, evt.ID, base.Type, c.users.DetachHunt)
		})

	case huntDomain.HuntUpdated:
		// la autoría no cambia en una actualización

	default:
		c.log.Warn("Unknown hunt event type", zap.String("type", base.Type), zap.String("key", key))
	}
}

// link aplica action si la hunt tiene autor; un autor desconocido no es un error.
func (c *HuntConsumer) link(ctx context.Context, createdBy string, huntID uuid.UUID, eventType string,
	action func(ctx context.Context, userID uuid.UUID, huntID string) error) {
	if createdBy == "" {
		return
	}
	userID, err := uuid.Parse(createdBy)
	if err != nil {
		c.log.Warn("Hunt author is not a user id", zap.String("created_by", createdBy), zap.String("type", eventType))
		return
	}

	ctxUser, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := action(ctxUser, userID, huntID.String()); err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			c.log.Warn("Hunt author not found", zap.String("user_id", createdBy), zap.String("hunt_id", huntID.String()))
			return
		}
		c.log.Error("Failed to sync user hunts",
			zap.String("user_id", createdBy),
			zap.String("hunt_id", huntID.String()),
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("User hunts synced", zap.String("user_id", createdBy), zap.String("type", eventType))
}
