package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// StatusFor maps a request-level error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidParameters), errors.Is(err, models.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the JSON error envelope for err
func ErrorBody(err error) apimodels.ErrorResponse {
	return apimodels.ErrorResponse{Error: apimodels.ErrorDetail{
		Code:    models.ErrorCode(err),
		Message: err.Error(),
	}}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusFor(err), ErrorBody(err))
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apimodels.ErrorResponse{
		Error: apimodels.ErrorDetail{Code: "invalid_request", Message: message},
	})
}
