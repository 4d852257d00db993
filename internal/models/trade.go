package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// IngestedAtField is the storage-assigned ingestion timestamp attached to a
// record when it is first written. It is an artifact of the storage layer and
// is stripped before a record is returned to any reader.
const IngestedAtField = "ingested_at"

// TradeRecord is one logged trading event as pushed by the external trading
// client. Only a handful of fields are well-known; everything else is carried
// through opaquely.
type TradeRecord map[string]any

// Symbol returns the instrument identifier, or "" when absent.
func (t TradeRecord) Symbol() string { return t.stringField("symbol") }

// Timestamp returns the trade's open/record time in its raw string form.
func (t TradeRecord) Timestamp() string { return t.stringField("timestamp") }

// TradeType returns the directional label (e.g. "buy" or "sell").
func (t TradeRecord) TradeType() string { return t.stringField("trade_type") }

// CloseTime returns the optional close time, or "" when absent.
func (t TradeRecord) CloseTime() string { return t.stringField("close_time") }

// Profit returns the realized profit/loss, coercing missing or malformed
// values to zero.
func (t TradeRecord) Profit() float64 {
	switch v := t["profit"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Clone returns a shallow copy of the record.
func (t TradeRecord) Clone() TradeRecord {
	out := make(TradeRecord, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t TradeRecord) stringField(key string) string {
	s, _ := t[key].(string)
	return s
}

// idSanitizer makes a timestamp safe for use inside a document key, using the
// same substitutions the trading client expects: spaces and periods become
// underscores, colons become hyphens.
var idSanitizer = strings.NewReplacer(" ", "_", ":", "-", ".", "_")

// TradeID derives the deterministic deduplication/storage key for a trade.
// Two records with the same symbol and timestamp collapse to the same ID.
func TradeID(symbol, timestamp string) string {
	return symbol + "_" + idSanitizer.Replace(timestamp)
}
