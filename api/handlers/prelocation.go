package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/config"
)

// prelocationTTL is how long a staged coordinate stays retrievable
const prelocationTTL = 15 * time.Minute

// PreLocation stages coordinates keyed by case id so a detection device can
// push a fix slightly before the sighting record that references it. Entries
// expire after fifteen minutes; this is a handoff buffer, not storage.
type PreLocation struct {
	mu      sync.Mutex
	entries map[string]prelocationEntry

	// now is swapped out in tests to control expiry
	now func() time.Time
}

type prelocationEntry struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	StoredAt  time.Time
}

// NewPreLocation returns an empty staging cache
func NewPreLocation() *PreLocation {
	return &PreLocation{
		entries: make(map[string]prelocationEntry),
		now:     time.Now,
	}
}

type setPreLocationRequest struct {
	CaseID    string   `json:"case_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// SetHandler stages a coordinate fix for a case
func (p *PreLocation) SetHandler(w http.ResponseWriter, r *http.Request) {
	var req setPreLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.CaseID == "" || req.Latitude == nil || req.Longitude == nil {
		config.ErrorStatus("case_id, latitude and longitude are required", http.StatusBadRequest, w, fmt.Errorf("incomplete prelocation"))
		return
	}

	p.mu.Lock()
	p.entries[req.CaseID] = prelocationEntry{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Accuracy:  req.Accuracy,
		StoredAt:  p.now(),
	}
	p.mu.Unlock()

	zap.S().Debugw("prelocation staged", "caseId", req.CaseID)

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "Location staged",
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type getPreLocationResponse struct {
	Success   bool     `json:"success"`
	CaseID    string   `json:"case_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	AgeSecs   int      `json:"age_seconds"`
}

// GetHandler retrieves (without consuming) the staged coordinates for a case.
// Expired or absent entries are a 404.
func (p *PreLocation) GetHandler(w http.ResponseWriter, r *http.Request) {
	caseID := r.URL.Query().Get("case_id")
	if caseID == "" {
		config.ErrorStatus("case_id is required", http.StatusBadRequest, w, fmt.Errorf("missing case_id"))
		return
	}

	p.mu.Lock()
	entry, ok := p.entries[caseID]
	if ok && p.now().Sub(entry.StoredAt) > prelocationTTL {
		delete(p.entries, caseID)
		ok = false
	}
	p.mu.Unlock()

	if !ok {
		config.ErrorStatus("no staged location for case", http.StatusNotFound, w, fmt.Errorf("no live prelocation for %s", caseID))
		return
	}

	b, err := json.Marshal(getPreLocationResponse{
		Success:   true,
		CaseID:    caseID,
		Latitude:  entry.Latitude,
		Longitude: entry.Longitude,
		Accuracy:  entry.Accuracy,
		AgeSecs:   int(p.now().Sub(entry.StoredAt).Seconds()),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
