package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
)

const DefaultItemImage = "image"

type Item struct {
	Name      string `json:"name" validate:"required"`
	Clue      string `json:"clue" validate:"required"`
	Image     string `json:"image"`
	Completed bool   `json:"completed"`
}

// Hunt es una búsqueda del tesoro. createdBy, participants y winner son ids de usuario.
type Hunt struct {
	ID           uuid.UUID `json:"_id"`
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Difficulty   string    `json:"difficulty" validate:"required"`
	Items        []Item    `json:"items" validate:"dive"`
	StartDate    time.Time `json:"startDate" validate:"required"`
	EndDate      time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	Participants []string  `json:"participants"`
	Completed    bool      `json:"completed"`
	Winner       string    `json:"winner,omitempty"`
	Version      int64     `json:"__v"`
}

// --- Métodos de dominio ---

// Normalize recorta los textos y aplica los valores por defecto de los ítems.
func (h *Hunt) Normalize() {
	h.Title = strings.TrimSpace(h.Title)
	h.Description = strings.TrimSpace(h.Description)
	h.Difficulty = strings.TrimSpace(h.Difficulty)
	for i := range h.Items {
		if h.Items[i].Image == "" {
			h.Items[i].Image = DefaultItemImage
		}
	}
	if h.Items == nil {
		h.Items = []Item{}
	}
	if h.Participants == nil {
		h.Participants = []string{}
	}
}

func (h *Hunt) Validate() error {
	return sharedDomain.Validate("hunt", h)
}

func (h *Hunt) NumOfParticipants() int {
	return len(h.Participants)
}

func (h *Hunt) NumOfItems() int {
	return len(h.Items)
}

func (h *Hunt) PartitionKey() string {
	return h.ID.String()
}

// Patch es una actualización parcial; los campos a nil no cambian.
type Patch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Difficulty   *string    `json:"difficulty"`
	Items        *[]Item    `json:"items"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Participants *[]string  `json:"participants"`
	Completed    *bool      `json:"completed"`
	Winner       *string    `json:"winner"`
}

// Apply copia los campos presentes, normaliza e incrementa la versión.
func (h *Hunt) Apply(p Patch) {
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Difficulty != nil {
		h.Difficulty = *p.Difficulty
	}
	if p.Items != nil {
		h.Items = append([]Item(nil), (*p.Items)...)
	}
	if p.StartDate != nil {
		h.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		h.EndDate = p.EndDate.UTC()
	}
	if p.Participants != nil {
		h.Participants = append([]string(nil), (*p.Participants)...)
	}
	if p.Completed != nil {
		h.Completed = *p.Completed
	}
	if p.Winner != nil {
		h.Winner = *p.Winner
	}
	h.Normalize()
	h.Version++
}
