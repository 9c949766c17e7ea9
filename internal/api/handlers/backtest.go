package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
	"github.com/yourusername/cryptodash-backtest/internal/batch"
	"github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
)

const (
	transportSSE       = "sse"
	transportWebSocket = "websocket"

	wsRequestTimeout = 30 * time.Second
	wsWriteTimeout   = 10 * time.Second
)

// BatchStarter launches batch runs
type BatchStarter interface {
	Start(ctx context.Context, req batch.Request) (*batch.Stream, error)
}

// BacktestHandler streams batch runs to clients
type BacktestHandler struct {
	batches  BatchStarter
	access   *logger.AccessLogger
	upgrader websocket.Upgrader
}

// NewBacktestHandler creates a new backtest handler. checkOrigin may be nil
// to accept same-origin websocket upgrades only.
func NewBacktestHandler(batches BatchStarter, access *logger.AccessLogger, checkOrigin func(*http.Request) bool) *BacktestHandler {
	return &BacktestHandler{
		batches: batches,
		access:  access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// StreamBacktest handles POST /api/v1/backtests/stream as Server-Sent Events
func (h *BacktestHandler) StreamBacktest(c *gin.Context) {
	var req apimodels.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	stream, err := h.batches.Start(c.Request.Context(), req.ToBatch())
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.StreamOpened(transportSSE)
	defer metrics.StreamClosed(transportSSE)
	h.access.LogStreamOpened(transportSSE, stream.RunID(), req.StrategyID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	sent := 0
	for ev := range stream.Events() {
		c.SSEvent(string(ev.Kind), ev.Data)
		c.Writer.Flush()
		metrics.RecordStreamEvent(transportSSE, string(ev.Kind))
		sent++
	}

	disconnected := c.Request.Context().Err() != nil
	h.access.LogStreamClosed(transportSSE, stream.RunID(), sent, disconnected)
}

// WebSocketBacktest handles GET /api/v1/backtests/ws. The first client
// message is the request; every event is sent as {"event","data"}.
func (h *BacktestHandler) WebSocketBacktest(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return
	}
	defer conn.Close()

	var req apimodels.BacktestRequest
	_ = conn.SetReadDeadline(time.Now().Add(wsRequestTimeout))
	if err := conn.ReadJSON(&req); err != nil || req.StrategyID == "" {
		message := "first message must be a backtest request with strategy_id"
		if err != nil {
			message = err.Error()
		}
		h.closeWithError(conn, apimodels.ErrorResponse{Error: apimodels.ErrorDetail{Code: "invalid_request", Message: message}})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.batches.Start(ctx, req.ToBatch())
	if err != nil {
		h.closeWithError(conn, ErrorBody(err))
		return
	}

	metrics.StreamOpened(transportWebSocket)
	defer metrics.StreamClosed(transportWebSocket)
	h.access.LogStreamOpened(transportWebSocket, stream.RunID(), req.StrategyID)

	// a failed read means the client went away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	sent := 0
	for ev := range stream.Events() {
		if ctx.Err() != nil {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(apimodels.StreamFrame{Event: string(ev.Kind), Data: ev.Data}); err != nil {
			cancel()
			continue
		}
		metrics.RecordStreamEvent(transportWebSocket, string(ev.Kind))
		sent++
	}

	disconnected := ctx.Err() != nil
	if !disconnected {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "complete"),
			time.Now().Add(wsWriteTimeout))
	}
	h.access.LogStreamClosed(transportWebSocket, stream.RunID(), sent, disconnected)
}

func (h *BacktestHandler) closeWithError(conn *websocket.Conn, body apimodels.ErrorResponse) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteJSON(body)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, body.Error.Code),
		time.Now().Add(wsWriteTimeout))
}
