package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/scavhunt/pkg/utils"
)

// RequestLogger registra cada petición con zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.RequestURI()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Errors traduce el último error adjuntado por un handler (c.Error) a la
// respuesta JSON estándar, si el handler no escribió ya una respuesta.
func Errors(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		code, resp := utils.Translate(err)
		if code >= http.StatusInternalServerError {
			log.Error("💥 Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		c.JSON(code, resp)
	}
}

// Recovery convierte un panic en un 500 con el sobre de error estándar.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("💥 Panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		utils.SendError(c, http.StatusInternalServerError, "Something went very wrong!")
		c.Abort()
	})
}

// NotFound responde a las rutas sin handler.
func NotFound(c *gin.Context) {
	utils.SendNotFound(c, fmt.Sprintf("Can't find %s on this server!", c.Request.URL.RequestURI()))
}
