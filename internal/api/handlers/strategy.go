package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// StrategyLister exposes the strategy registry
type StrategyLister interface {
	Definitions() []models.StrategyDefinition
}

// InstrumentLister exposes the eligible instrument universe
type InstrumentLister interface {
	Eligible(ctx context.Context) ([]*models.Instrument, error)
}

// CatalogHandler serves strategy and instrument listings
type CatalogHandler struct {
	strategies  StrategyLister
	instruments InstrumentLister
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(strategies StrategyLister, instruments InstrumentLister) *CatalogHandler {
	return &CatalogHandler{strategies: strategies, instruments: instruments}
}

// ListStrategies handles GET /api/v1/strategies
func (h *CatalogHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, apimodels.StrategiesResponse{Strategies: h.strategies.Definitions()})
}

// ListInstruments handles GET /api/v1/instruments
func (h *CatalogHandler) ListInstruments(c *gin.Context) {
	instruments, err := h.instruments.Eligible(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if instruments == nil {
		instruments = []*models.Instrument{}
	}
	c.JSON(http.StatusOK, apimodels.InstrumentsResponse{Instruments: instruments, Count: len(instruments)})
}
