package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedCache "github.com/davicafu/scavhunt/internal/shared/infra/platform/cache"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/metrics"
	sharedUtils "github.com/davicafu/scavhunt/internal/shared/infra/utils"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

const cacheTTL = 120

// HuntService define los casos de uso de hunts.
type HuntService struct {
	repo      huntDomain.HuntRepository
	analytics huntDomain.HuntAnalyticsRepository
	cache     sharedCache.Cache
	log       *zap.Logger
	queryOpts []query.Option
	now       func() time.Time
}

func NewHuntService(
	repo huntDomain.HuntRepository,
	analytics huntDomain.HuntAnalyticsRepository,
	cache sharedCache.Cache,
	log *zap.Logger,
	queryOpts ...query.Option,
) *HuntService {
	return &HuntService{
		repo:      repo,
		analytics: analytics,
		cache:     cache,
		log:       log,
		queryOpts: append(huntDomain.QueryOptions(), queryOpts...),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListHunts compila los parámetros de la petición y ejecuta el descriptor.
// Los errores del compilador (*query.ClientRequestError, *query.PageOutOfRangeError)
// y los de almacenamiento se devuelven sin envolver.
func (s *HuntService) ListHunts(ctx context.Context, params query.Params) (docs []query.Document, err error) {
	defer func() { metrics.ObserveQuery(huntDomain.Collection, err) }()

	d, err := query.Compile(ctx, huntDomain.Collection, params, s.repo.Count, s.queryOpts...)
	if err != nil {
		return nil, err
	}
	docs, err = s.repo.Find(ctx, d)
	if err != nil {
		s.log.Error("Failed to list hunts", zap.Error(err))
		return nil, err
	}
	return docs, nil
}

// GetHunt usa cache-aside; los fallos transitorios del repositorio se reintentan.
func (s *HuntService) GetHunt(ctx context.Context, id uuid.UUID) (*huntDomain.Hunt, error) {
	key := huntDomain.HuntCacheKeyByID(id)
	if s.cache != nil {
		var h huntDomain.Hunt
		if hit, _ := s.cache.Get(ctx, key, &h); hit {
			return &h, nil
		}
	}

	var hunt *huntDomain.Hunt
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, isPermanent, func() error {
		var errRetry error
		hunt, errRetry = s.repo.GetByID(ctx, id)
		return errRetry
	})
	if err != nil {
		if errors.Is(err, huntDomain.ErrHuntNotFound) {
			s.log.Warn("Hunt not found", zap.String("hunt_id", id.String()))
		} else {
			s.log.Error("Failed to fetch hunt", zap.String("hunt_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, hunt, cacheTTL, s.log)
	return hunt, nil
}

// CreateHunt valida la hunt y la guarda junto a su evento hunt.created.
func (s *HuntService) CreateHunt(ctx context.Context, h *huntDomain.Hunt) (*huntDomain.Hunt, error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	h.StartDate, h.EndDate = h.StartDate.UTC(), h.EndDate.UTC()
	h.Version = 0
	h.Normalize()
	if err := h.Validate(); err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(huntDomain.AggregateType, h.ID.String(), huntDomain.HuntCreated, sharedEvents.HuntCreated{
		ID:         h.ID,
		Title:      h.Title,
		Difficulty: h.Difficulty,
		CreatedBy:  h.CreatedBy,
		NumOfItems: h.NumOfItems(),
		CreatedAt:  h.CreatedAt,
	})
	if err := s.repo.Create(ctx, h, evt); err != nil {
		s.log.Error("Failed to create hunt", zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, huntDomain.HuntCacheKeyByID(h.ID), h, cacheTTL, s.log)
	s.log.Info("✅ Hunt creada", zap.String("hunt_id", h.ID.String()))
	return h, nil
}

// UpdateHunt aplica una actualización parcial y vuelve a validar la entidad completa.
func (s *HuntService) UpdateHunt(ctx context.Context, id uuid.UUID, patch huntDomain.Patch) (*huntDomain.Hunt, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	h.Apply(patch)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(huntDomain.AggregateType, h.ID.String(), huntDomain.HuntUpdated, sharedEvents.HuntUpdated{
		ID:         h.ID,
		Title:      h.Title,
		Difficulty: h.Difficulty,
		CreatedBy:  h.CreatedBy,
		NumOfItems: h.NumOfItems(),
		Completed:  h.Completed,
		Winner:     h.Winner,
		Version:    h.Version,
	})
	if err := s.repo.Update(ctx, h, evt); err != nil {
		s.log.Error("Failed to update hunt", zap.String("hunt_id", id.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, huntDomain.HuntCacheKeyByID(h.ID), h, cacheTTL, s.log)
	return h, nil
}

func (s *HuntService) DeleteHunt(ctx context.Context, id uuid.UUID) error {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent(huntDomain.AggregateType, id.String(), huntDomain.HuntDeleted, sharedEvents.HuntDeleted{
		ID:        id,
		CreatedBy: h.CreatedBy,
	})
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(s.cache, huntDomain.HuntCacheKeyByID(id), s.log)
	return nil
}

// DailyStats devuelve la tendencia diaria en [from, to].
func (s *HuntService) DailyStats(ctx context.Context, from, to time.Time) ([]huntDomain.DailyHuntTrend, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: 'to' must not be before 'from'", sharedDomain.ErrInvalidInput)
	}
	if s.analytics == nil {
		return []huntDomain.DailyHuntTrend{}, nil
	}
	return s.analytics.GetDailyTrend(ctx, from, to)
}

// ImportHunts crea las hunts de un volcado; las que ya existen se omiten.
func (s *HuntService) ImportHunts(ctx context.Context, storage huntDomain.HuntSeedStorage) (int, error) {
	hunts, err := storage.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load seed: %w", err)
	}

	imported := 0
	for _, h := range hunts {
		if _, err := s.CreateHunt(ctx, h); err != nil {
			if errors.Is(err, huntDomain.ErrHuntAlreadyExists) {
				s.log.Warn("Hunt already exists, skipping", zap.String("hunt_id", h.ID.String()))
				continue
			}
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// isPermanent indica errores que no merece la pena reintentar.
func isPermanent(err error) bool {
	return errors.Is(err, sharedDomain.ErrNotFound) || errors.Is(err, context.Canceled)
}
