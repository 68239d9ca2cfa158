// en pkg/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"  // 4xx, fallo del cliente
	StatusError   = "error" // 5xx
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Status   string                    `json:"status"`
	Message  string                    `json:"message"`
	LastPage *int                      `json:"lastPage,omitempty"`
	Errors   []sharedDomain.FieldError `json:"errors,omitempty"`
}

// SendSuccess envía {status, data: {key: data}}.
func SendSuccess(c *gin.Context, statusCode int, key string, data interface{}) {
	c.JSON(statusCode, gin.H{
		"status": StatusSuccess,
		"data":   gin.H{key: data},
	})
}

// SendList añade el número de resultados al sobre de SendSuccess.
func SendList(c *gin.Context, key string, docs []query.Document) {
	if docs == nil {
		docs = []query.Document{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  StatusSuccess,
		"results": len(docs),
		"data":    gin.H{key: docs},
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorResponse{Status: statusFor(statusCode), Message: message})
}

// SendTypedError traduce los errores tipados del servicio a su código HTTP.
func SendTypedError(c *gin.Context, err error) {
	code, resp := Translate(err)
	c.JSON(code, resp)
}

// Translate decide código y cuerpo para un error.
func Translate(err error) (int, ErrorResponse) {
	var (
		clientErr *query.ClientRequestError
		pageErr   *query.PageOutOfRangeError
		validErr  *sharedDomain.ValidationError
		storeErr  *sharedDomain.StorageUnavailableError
	)

	code := http.StatusInternalServerError
	resp := ErrorResponse{Message: err.Error()}

	switch {
	case errors.As(err, &pageErr):
		code = http.StatusNotFound
		last := pageErr.LastPage
		resp.LastPage = &last
	case errors.As(err, &clientErr):
		code = http.StatusBadRequest
	case errors.As(err, &validErr):
		code = http.StatusBadRequest
		resp.Errors = validErr.Fields
	case errors.Is(err, sharedDomain.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, sharedDomain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, sharedDomain.ErrConflict):
		code = http.StatusConflict
	case errors.As(err, &storeErr):
		code = http.StatusServiceUnavailable
		resp.Message = "storage temporarily unavailable, try again later"
	default:
		resp.Message = "Something went very wrong!"
	}
	resp.Status = statusFor(code)
	return code, resp
}

func statusFor(code int) string {
	if code >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}
