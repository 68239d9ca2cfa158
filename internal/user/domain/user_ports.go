package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound      = fmt.Errorf("user %w", sharedDomain.ErrNotFound)
	ErrUserAlreadyExists = fmt.Errorf("user %w", sharedDomain.ErrConflict)
)

// Collection es el destino de almacenamiento de los descriptores de usuarios.
const Collection = "users"

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
type UserRepository interface {
	Find(ctx context.Context, d query.Descriptor) ([]query.Document, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)

	// Debe devolver ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
}

// QuerySchema es estricto: password no es filtrable, ordenable ni proyectable.
var QuerySchema = query.Schema{
	Fields: map[string]query.Kind{
		"_id":       query.KindString,
		"username":  query.KindString,
		"email":     query.KindString,
		"createdAt": query.KindTime,
		"hunts":     query.KindString,
		"__v":       query.KindNumber,
	},
	Strict: true,
}

// DefaultProjection oculta la versión salvo que se pida.
var DefaultProjection = &query.Projection{Mode: query.Exclude, Fields: []string{"__v"}}

func QueryOptions() []query.Option {
	return []query.Option{
		query.WithSchema(QuerySchema),
		query.WithDefaultProjection(DefaultProjection),
	}
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("user:id:%s", id.String())
}
