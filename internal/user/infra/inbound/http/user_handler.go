package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	"github.com/davicafu/scavhunt/internal/user/application"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
	"github.com/davicafu/scavhunt/pkg/utils"
)

// UserHandler encapsula los endpoints HTTP de usuarios.
type UserHandler struct {
	service *application.UserService
}

func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// --- Handlers CRUD ---

// ListUsers endpoint GET / con filtros, orden, proyección y paginación.
func (h *UserHandler) ListUsers(c *gin.Context) {
	docs, err := h.service.ListUsers(c.Request.Context(), query.ParamsFromValues(c.Request.URL.Query()))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendList(c, "users", docs)
}

// CreateUser endpoint POST /
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req application.NewUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "user", user)
}

// GetUser endpoint GET /:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "user", user)
}

// UpdateUser endpoint PATCH /:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch userDomain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "user", user)
}

// DeleteUser endpoint DELETE /:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid user id %q", sharedDomain.ErrInvalidInput, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
