package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto de usuarios.
type UserCreated struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserUpdated struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Hunts    []string  `json:"hunts"`
	Version  int64     `json:"version"`
}

type UserDeleted struct {
	ID uuid.UUID `json:"id"`
}
