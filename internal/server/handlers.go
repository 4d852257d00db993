package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"forex-dashboard-go/internal/dashboard"
	"forex-dashboard-go/internal/ingest"
	"forex-dashboard-go/internal/models"
	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log     *zap.Logger
	ingest  *ingest.Service
	dash    *dashboard.Service
	webRoot string
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, ingestSvc *ingest.Service, dashSvc *dashboard.Service, webRoot string) *APIHandler {
	return &APIHandler{log: log, ingest: ingestSvc, dash: dashSvc, webRoot: webRoot}
}

// uploadResponse is the wire contract of POST /api/upload-trades.
type uploadResponse struct {
	Success       bool   `json:"success"`
	UploadedCount int    `json:"uploaded_count"`
	Message       string `json:"message"`
	Error         string `json:"error,omitempty"`
}

// StatsHandler returns summary statistics over the most recent trades.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dash.Stats(r.Context())
	if err != nil {
		h.writeDegraded(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// TradesHandler returns recent trades, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	limit := dashboard.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	trades, err := h.dash.RecentTrades(r.Context(), limit)
	if err != nil {
		h.writeDegraded(w, err)
		return
	}
	if trades == nil {
		trades = []models.TradeRecord{}
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// EquityCurveHandler returns the cumulative profit curve for charting.
func (h *APIHandler) EquityCurveHandler(w http.ResponseWriter, r *http.Request) {
	points, err := h.dash.EquityCurve(r.Context())
	if err != nil {
		h.writeDegraded(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

// UploadTradesHandler receives a single trade record or a list of them from
// the external trading client.
func (h *APIHandler) UploadTradesHandler(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, uploadResponse{
			Success: false,
			Error:   err.Error(),
			Message: "Failed to upload trades",
		})
		return
	}

	trades, err := recordsFromPayload(payload)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, uploadResponse{
			Success: false,
			Error:   err.Error(),
			Message: "Failed to upload trades",
		})
		return
	}

	result := h.ingest.Process(r.Context(), trades)
	h.writeJSON(w, http.StatusOK, uploadResponse{
		Success:       true,
		UploadedCount: result.Uploaded,
		Message:       fmt.Sprintf("Successfully uploaded %d trades", result.Uploaded),
	})
}

// TestHandler reports storage connectivity with a sample of its contents.
func (h *APIHandler) TestHandler(w http.ResponseWriter, r *http.Request) {
	diag, err := h.dash.Diagnostics(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"connected": false,
			"error":     err.Error(),
			"message":   "Storage connection failed",
		})
		return
	}

	var sample any
	if diag.Sample != nil {
		sample = diag.Sample
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"connected":    true,
		"trade_count":  diag.TradeCount,
		"sample_trade": sample,
		"message":      "Storage connection successful",
		"server_time":  time.Now().Format(time.RFC3339),
		"status":       "Online and running",
	})
}

// HealthHandler is the liveness probe.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"message":   "Forex Dashboard is running",
	})
}

// IndexHandler serves the dashboard page.
func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, h.webRoot+"/templates/index.html")
}

// recordsFromPayload normalizes the upload body: a single object or a list
// of objects; anything else is a request error.
func recordsFromPayload(payload any) ([]models.TradeRecord, error) {
	switch v := payload.(type) {
	case map[string]any:
		return []models.TradeRecord{v}, nil
	case []any:
		trades := make([]models.TradeRecord, 0, len(v))
		for i, item := range v {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not a trade record", i)
			}
			trades = append(trades, record)
		}
		return trades, nil
	default:
		return nil, errors.New("expected a trade record or a list of trade records")
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeDegraded maps a storage failure to 503 so clients can tell an outage
// apart from an empty store.
func (h *APIHandler) writeDegraded(w http.ResponseWriter, err error) {
	h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"error":  err.Error(),
		"status": "degraded",
	})
}
