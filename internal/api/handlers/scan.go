package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/scan"
	"github.com/wonny/leadlag/pkg/logger"
)

// ScanHandler handles scan API endpoints
// ⭐ SSOT: 스캔 API 핸들러는 이 구조체에서만
type ScanHandler struct {
	service  *scan.Service
	scanRepo contracts.ScanRepository
	logger   *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(service *scan.Service, scanRepo contracts.ScanRepository, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service:  service,
		scanRepo: scanRepo,
		logger:   log,
	}
}

// ScanRequest represents a scan trigger request
type ScanRequest struct {
	From    string `json:"from"`    // Optional: window start (YYYY-MM-DD)
	To      string `json:"to"`      // Optional: window end (YYYY-MM-DD)
	Persist bool   `json:"persist"` // Save observations and the result
}

// ScanResponse wraps a completed scan
type ScanResponse struct {
	Status  string                `json:"status"`
	Summary string                `json:"summary"`
	Result  *contracts.ScanResult `json:"result"`
}

// Run triggers a scan over the configured series
// POST /api/scan
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts := scan.RunOptions{Persist: req.Persist}
	var err error
	if req.From != "" {
		opts.From, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if req.To != "" {
		opts.To, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	}

	result, err := h.service.Run(ctx, opts)
	if err != nil {
		h.logger.WithError(err).Error("Scan failed")

		var scanErr *contracts.ScanError
		if errors.As(err, &scanErr) {
			// Bad parameters are the caller's fault; data that cannot
			// be aligned or ranked is unprocessable, not a server error
			if scanErr.Stage == contracts.StageReceived {
				respondError(w, http.StatusBadRequest, err.Error())
			} else {
				respondError(w, http.StatusUnprocessableEntity, err.Error())
			}
			return
		}
		respondError(w, http.StatusInternalServerError, "Scan failed: "+err.Error())
		return
	}

	// An empty top is a successful scan; callers should not treat it as failure
	status := "ok"
	if !result.HasRelationships() {
		status = "no_relationships"
	}
	respondJSON(w, http.StatusOK, ScanResponse{
		Status:  status,
		Summary: result.Summary(),
		Result:  result,
	})
}

// GetLatest returns the most recent persisted scan
// GET /api/scan/latest
func (h *ScanHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.scanRepo == nil {
		respondError(w, http.StatusServiceUnavailable, "Scan persistence not configured")
		return
	}

	result, err := h.scanRepo.GetLatestResult(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest scan")
		respondError(w, http.StatusNotFound, "No scan result available")
		return
	}

	respondJSON(w, http.StatusOK, ScanResponse{
		Status:  "ok",
		Summary: result.Summary(),
		Result:  result,
	})
}
