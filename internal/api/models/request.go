package models

import (
	"time"

	"github.com/yourusername/cryptodash-backtest/internal/batch"
	domain "github.com/yourusername/cryptodash-backtest/internal/models"
)

// BacktestRequest represents a request to start a batch backtest.
// Omitted dates default to the instrument's full history.
type BacktestRequest struct {
	StrategyID string             `json:"strategy_id" binding:"required"`
	Parameters map[string]float64 `json:"parameters"`
	Interval   string             `json:"interval,omitempty"`
	StartDate  *time.Time         `json:"start_date,omitempty"`
	EndDate    *time.Time         `json:"end_date,omitempty"`
}

// ToBatch converts the request to an orchestrator request
func (r BacktestRequest) ToBatch() batch.Request {
	req := batch.Request{
		StrategyID: domain.StrategyID(r.StrategyID),
		Parameters: domain.Parameters(r.Parameters),
		Interval:   r.Interval,
	}
	if r.StartDate != nil {
		req.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		req.EndDate = *r.EndDate
	}
	return req
}
