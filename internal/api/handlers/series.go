package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
	"github.com/wonny/leadlag/pkg/logger"
)

// SeriesHandler handles series API endpoints
// ⭐ SSOT: 시리즈 API 핸들러는 이 구조체에서만
type SeriesHandler struct {
	collector *fetch.Collector
	sources   *fetch.SourcesFile
	obsRepo   contracts.ObservationRepository
	workers   int
	logger    *logger.Logger
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(collector *fetch.Collector, sources *fetch.SourcesFile, obsRepo contracts.ObservationRepository, workers int, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{
		collector: collector,
		sources:   sources,
		obsRepo:   obsRepo,
		workers:   workers,
		logger:    log,
	}
}

// CollectRequest represents a collection request
type CollectRequest struct {
	From string `json:"from"` // Optional: window start (YYYY-MM-DD)
	To   string `json:"to"`   // Optional: window end (YYYY-MM-DD)
}

// CollectResult is one series outcome in the response
type CollectResult struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// CollectResponse summarizes a collection run
type CollectResponse struct {
	Status  string          `json:"status"`
	Success int             `json:"success"`
	Failed  int             `json:"failed"`
	Results []CollectResult `json:"results"`
}

// Collect fetches and persists every configured series
// POST /api/series/collect
func (h *SeriesHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CollectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	to := contracts.Day(time.Now().UTC())
	from := to.AddDate(0, 0, -365)
	var err error
	if req.From != "" {
		from, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if req.To != "" {
		to, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	}

	_, results, err := h.collector.FetchAll(ctx, h.sources.Series, from, to, fetch.Config{
		Workers: h.workers,
		Persist: true,
	})
	if err != nil {
		h.logger.WithError(err).Error("Collection failed")
		respondError(w, http.StatusInternalServerError, "Collection failed: "+err.Error())
		return
	}

	resp := CollectResponse{Status: "ok"}
	for _, result := range results {
		cr := CollectResult{Name: result.Name, Count: result.Series.Len()}
		if result.Error != nil {
			cr.Error = result.Error.Error()
			resp.Failed++
		} else {
			resp.Success++
		}
		resp.Results = append(resp.Results, cr)
	}

	respondJSON(w, http.StatusOK, resp)
}

// List returns coverage for every stored series
// GET /api/series
func (h *SeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.obsRepo == nil {
		respondError(w, http.StatusServiceUnavailable, "Series persistence not configured")
		return
	}

	coverage, err := h.obsRepo.ListSeries(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list series")
		respondError(w, http.StatusInternalServerError, "Failed to list series")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"series": coverage,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
