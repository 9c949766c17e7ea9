// Package logger provides HTTP access and stream logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AccessLogger records API requests and stream lifecycles.
type AccessLogger struct {
	*logrus.Entry
}

// NewAccessLogger creates a new access logger.
func NewAccessLogger(baseLogger *logrus.Logger) *AccessLogger {
	return &AccessLogger{
		Entry: baseLogger.WithField("component", "api"),
	}
}

// LogRequest logs a completed HTTP request.
func (al *AccessLogger) LogRequest(method, path, clientIP string, status int, latency time.Duration) {
	entry := al.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"client_ip":  clientIP,
		"status":     status,
		"latency_ms": latency.Milliseconds(),
	})
	if status >= 500 {
		entry.Error("Request failed")
		return
	}
	entry.Info("Request handled")
}

// LogStreamOpened logs a new event stream subscription.
func (al *AccessLogger) LogStreamOpened(transport, runID, strategyID string) {
	al.WithFields(logrus.Fields{
		"transport":   transport,
		"run_id":      runID,
		"strategy_id": strategyID,
	}).Info("Event stream opened")
}

// LogStreamClosed logs the end of an event stream.
func (al *AccessLogger) LogStreamClosed(transport, runID string, events int, disconnected bool) {
	al.WithFields(logrus.Fields{
		"transport":    transport,
		"run_id":       runID,
		"events_sent":  events,
		"disconnected": disconnected,
	}).Info("Event stream closed")
}
