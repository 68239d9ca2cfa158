package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedCache "github.com/davicafu/scavhunt/internal/shared/infra/platform/cache"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/metrics"
	sharedUtils "github.com/davicafu/scavhunt/internal/shared/infra/utils"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
)

const cacheTTL = 300

// NewUserInput son los datos de alta; la contraseña llega en claro y se hashea aquí.
type NewUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService define los casos de uso de usuarios.
type UserService struct {
	repo      userDomain.UserRepository
	cache     sharedCache.Cache
	log       *zap.Logger
	queryOpts []query.Option
	now       func() time.Time
}

func NewUserService(repo userDomain.UserRepository, cache sharedCache.Cache, log *zap.Logger, queryOpts ...query.Option) *UserService {
	return &UserService{
		repo:      repo,
		cache:     cache,
		log:       log,
		queryOpts: append(userDomain.QueryOptions(), queryOpts...),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListUsers compila los parámetros de la petición y ejecuta el descriptor.
func (s *UserService) ListUsers(ctx context.Context, params query.Params) (docs []query.Document, err error) {
	defer func() { metrics.ObserveQuery(userDomain.Collection, err) }()

	d, err := query.Compile(ctx, userDomain.Collection, params, s.repo.Count, s.queryOpts...)
	if err != nil {
		return nil, err
	}
	docs, err = s.repo.Find(ctx, d)
	if err != nil {
		s.log.Error("Failed to list users", zap.Error(err))
		return nil, err
	}
	return docs, nil
}

// GetUser usa cache-aside. La copia en caché no lleva el hash de la contraseña,
// por eso las escrituras leen siempre del repositorio.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	key := userDomain.CacheKeyByID(id)
	if s.cache != nil {
		var u userDomain.User
		if hit, _ := s.cache.Get(ctx, key, &u); hit {
			return &u, nil
		}
	}

	var user *userDomain.User
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, isPermanent, func() error {
		var errRetry error
		user, errRetry = s.repo.GetByID(ctx, id)
		return errRetry
	})
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			s.log.Warn("User not found", zap.String("user_id", id.String()))
		} else {
			s.log.Error("Failed to fetch user", zap.String("user_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, user, cacheTTL, s.log)
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, in NewUserInput) (*userDomain.User, error) {
	u, err := userDomain.NewUser(in.Username, in.Email, in.Password, s.now())
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(userDomain.AggregateType, u.ID.String(), userDomain.UserCreated, sharedEvents.UserCreated{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
	if err := s.repo.Create(ctx, u, evt); err != nil {
		if !errors.Is(err, userDomain.ErrUserAlreadyExists) {
			s.log.Error("Failed to create user", zap.Error(err))
		}
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, userDomain.CacheKeyByID(u.ID), u, cacheTTL, s.log)
	s.log.Info("✅ Usuario creado", zap.String("user_id", u.ID.String()))
	return u, nil
}

// UpdateUser aplica una actualización parcial; si cambia la contraseña se vuelve a hashear.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, patch userDomain.Patch) (*userDomain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(userDomain.AggregateType, id.String(), userDomain.UserDeleted, sharedEvents.UserDeleted{ID: id})
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}
	sharedCache.AsyncCacheDelete(s.cache, userDomain.CacheKeyByID(id), s.log)
	return nil
}

// AttachHunt registra una hunt creada por el usuario. Es idempotente.
func (s *UserService) AttachHunt(ctx context.Context, userID uuid.UUID, huntID string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.AttachHunt(huntID) {
		return nil
	}
	return s.save(ctx, u)
}

// DetachHunt elimina la referencia a una hunt borrada. Es idempotente.
func (s *UserService) DetachHunt(ctx context.Context, userID uuid.UUID, huntID string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.DetachHunt(huntID) {
		return nil
	}
	return s.save(ctx, u)
}

// save persiste el usuario con su evento user.updated e invalida la caché.
func (s *UserService) save(ctx context.Context, u *userDomain.User) error {
	evt := sharedDomain.NewOutboxEvent(userDomain.AggregateType, u.ID.String(), userDomain.UserUpdated, sharedEvents.UserUpdated{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Hunts:    append([]string{}, u.Hunts...),
		Version:  u.Version,
	})
	if err := s.repo.Update(ctx, u, evt); err != nil {
		if !errors.Is(err, userDomain.ErrUserAlreadyExists) {
			s.log.Error("Failed to update user", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
		return err
	}

	sharedCache.AsyncCacheSet(s.cache, userDomain.CacheKeyByID(u.ID), u, cacheTTL, s.log)
	return nil
}

// isPermanent indica errores que no merece la pena reintentar.
func isPermanent(err error) bool {
	return errors.Is(err, sharedDomain.ErrNotFound) || errors.Is(err, context.Canceled)
}
