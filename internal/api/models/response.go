package models

import (
	domain "github.com/yourusername/cryptodash-backtest/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StrategiesResponse lists available strategies
type StrategiesResponse struct {
	Strategies []domain.StrategyDefinition `json:"strategies"`
}

// InstrumentsResponse lists instruments a batch would evaluate
type InstrumentsResponse struct {
	Instruments []*domain.Instrument `json:"instruments"`
	Count       int                  `json:"count"`
}

// StreamFrame is the websocket encoding of one batch event
type StreamFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
