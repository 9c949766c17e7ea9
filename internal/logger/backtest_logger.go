// Package logger provides batch-backtest logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for batch backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogBatchStarted logs the start of a batch run.
func (bl *BacktestLogger) LogBatchStarted(runID, strategyID, interval string, instruments int) {
	bl.WithFields(logrus.Fields{
		"run_id":      runID,
		"strategy_id": strategyID,
		"interval":    interval,
		"instruments": instruments,
	}).Info("Batch backtest started")
}

// LogInstrumentEvaluated logs a completed per-instrument evaluation.
func (bl *BacktestLogger) LogInstrumentEvaluated(runID, symbol string, cached bool, trades int, returnPct float64, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"run_id":      runID,
		"symbol":      symbol,
		"cached":      cached,
		"trade_count": trades,
		"return_pct":  returnPct,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Instrument evaluated")
}

// LogInstrumentFailed logs a per-instrument failure; the batch continues.
func (bl *BacktestLogger) LogInstrumentFailed(runID, symbol, code string, err error) {
	bl.WithFields(logrus.Fields{
		"run_id": runID,
		"symbol": symbol,
		"code":   code,
	}).WithError(err).Warn("Instrument evaluation failed")
}

// LogCacheDegraded logs a cache backend failure treated as a miss.
func (bl *BacktestLogger) LogCacheDegraded(op string, err error) {
	bl.WithFields(logrus.Fields{
		"operation":  op,
		"event_type": "cache_degraded",
	}).WithError(err).Warn("Result cache unavailable, continuing without it")
}

// LogBatchFinished logs the end of a batch run.
func (bl *BacktestLogger) LogBatchFinished(runID string, succeeded, failed int, cancelled bool, duration time.Duration) {
	entry := bl.WithFields(logrus.Fields{
		"run_id":      runID,
		"succeeded":   succeeded,
		"failed":      failed,
		"cancelled":   cancelled,
		"duration_ms": duration.Milliseconds(),
	})
	if cancelled {
		entry.Warn("Batch backtest cancelled by consumer")
		return
	}
	entry.Info("Batch backtest completed")
}
