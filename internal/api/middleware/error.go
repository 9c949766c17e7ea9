package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
)

// ErrorHandler middleware turns panics into a JSON 500
func ErrorHandler(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("Recovered from handler panic")

		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, apimodels.ErrorResponse{
			Error: apimodels.ErrorDetail{Code: "internal", Message: message},
		})
	})
}
