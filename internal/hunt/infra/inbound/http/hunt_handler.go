package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/scavhunt/internal/hunt/application"
	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	"github.com/davicafu/scavhunt/pkg/utils"
)

// HuntHandler encapsula los endpoints HTTP de hunts. Los errores se adjuntan
// con c.Error y los traduce el middleware de errores.
type HuntHandler struct {
	service *application.HuntService
}

func NewHuntHandler(service *application.HuntService) *HuntHandler {
	return &HuntHandler{service: service}
}

// huntResponse añade los campos virtuales a la hunt.
type huntResponse struct {
	*huntDomain.Hunt
	NumOfParticipants int `json:"numOfParticipants"`
	NumOfItems        int `json:"numOfItems"`
}

func toResponse(h *huntDomain.Hunt) huntResponse {
	return huntResponse{Hunt: h, NumOfParticipants: h.NumOfParticipants(), NumOfItems: h.NumOfItems()}
}

// createHuntRequest es el cuerpo de POST /; los campos los valida el dominio.
type createHuntRequest struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Difficulty   string            `json:"difficulty"`
	Items        []huntDomain.Item `json:"items"`
	StartDate    time.Time         `json:"startDate"`
	EndDate      time.Time         `json:"endDate"`
	CreatedBy    string            `json:"createdBy"`
	Participants []string          `json:"participants"`
}

// --- Handlers CRUD ---

// ListHunts endpoint GET / con filtros, orden, proyección y paginación.
func (h *HuntHandler) ListHunts(c *gin.Context) {
	docs, err := h.service.ListHunts(c.Request.Context(), query.ParamsFromValues(c.Request.URL.Query()))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendList(c, "hunts", docs)
}

// CreateHunt endpoint POST /
func (h *HuntHandler) CreateHunt(c *gin.Context) {
	var req createHuntRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	hunt, err := h.service.CreateHunt(c.Request.Context(), &huntDomain.Hunt{
		Title:        req.Title,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		Items:        req.Items,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedBy:    req.CreatedBy,
		Participants: req.Participants,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "hunt", toResponse(hunt))
}

// GetHunt endpoint GET /:id
func (h *HuntHandler) GetHunt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	hunt, err := h.service.GetHunt(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "hunt", toResponse(hunt))
}

// UpdateHunt endpoint PATCH /:id
func (h *HuntHandler) UpdateHunt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch huntDomain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	hunt, err := h.service.UpdateHunt(c.Request.Context(), id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "hunt", toResponse(hunt))
}

// DeleteHunt endpoint DELETE /:id
func (h *HuntHandler) DeleteHunt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteHunt(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailyStats endpoint GET /stats/daily?from=2026-01-01&to=2026-01-31
// Sin parámetros devuelve los últimos 30 días.
func (h *HuntHandler) DailyStats(c *gin.Context) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = parseDay(raw); err != nil {
			_ = c.Error(fmt.Errorf("%w: from: %s", sharedDomain.ErrInvalidInput, err.Error()))
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = parseDay(raw); err != nil {
			_ = c.Error(fmt.Errorf("%w: to: %s", sharedDomain.ErrInvalidInput, err.Error()))
			return
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	trend, err := h.service.DailyStats(c.Request.Context(), from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  utils.StatusSuccess,
		"results": len(trend),
		"data":    gin.H{"stats": trend},
	})
}

func parseDay(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid hunt id %q", sharedDomain.ErrInvalidInput, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
