package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// keyMaterial is the canonical encoding of everything a result depends on.
// encoding/json writes map keys in sorted order.
type keyMaterial struct {
	InstrumentID int64              `json:"instrument_id"`
	Interval     string             `json:"interval"`
	Start        string             `json:"start"`
	End          string             `json:"end"`
	StrategyID   models.StrategyID  `json:"strategy_id"`
	Parameters   map[string]float64 `json:"parameters"`
}

// Key derives the cache key for one instrument evaluation. Equal inputs map to
// equal keys regardless of parameter order or time zone.
func Key(instrumentID int64, interval string, start, end time.Time, strategyID models.StrategyID, params models.Parameters) string {
	material := keyMaterial{
		InstrumentID: instrumentID,
		Interval:     interval,
		Start:        canonicalTime(start),
		End:          canonicalTime(end),
		StrategyID:   strategyID,
		Parameters:   params,
	}
	if material.Parameters == nil {
		material.Parameters = map[string]float64{}
	}

	// Marshal of this struct cannot fail: every field is a plain value
	raw, _ := json.Marshal(material)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func canonicalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
