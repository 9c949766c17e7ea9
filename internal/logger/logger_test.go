package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = newLogger(buf, "nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestBacktestLoggerBatchStarted(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogBatchStarted("run-1", "rsi", "1h", 48)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(48), logEntry["instruments"])
}

func TestBacktestLoggerInstrumentFailed(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogInstrumentFailed("run-1", "DOGE", "insufficient_data", errors.New("have 10 price points"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "insufficient_data", logEntry["code"])
	assert.Equal(t, "have 10 price points", logEntry["error"])
}

func TestBacktestLoggerBatchFinishedCancelled(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogBatchFinished("run-2", 3, 1, true, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, true, logEntry["cancelled"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestAccessLoggerRequest(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAccessLogger(log)

	al.LogRequest("GET", "/api/v1/strategies", "127.0.0.1", 503, 20*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "api", logEntry["component"])
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, float64(503), logEntry["status"])
}
