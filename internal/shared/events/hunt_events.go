package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto de hunts. No son entidades del dominio.
type HuntCreated struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	NumOfItems int       `json:"numOfItems"`
	CreatedAt  time.Time `json:"createdAt"`
}

type HuntUpdated struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	NumOfItems int       `json:"numOfItems"`
	Completed  bool      `json:"completed"`
	Winner     string    `json:"winner,omitempty"`
	Version    int64     `json:"version"`
}

type HuntDeleted struct {
	ID        uuid.UUID `json:"id"`
	CreatedBy string    `json:"createdBy,omitempty"`
}
