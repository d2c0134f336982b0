package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stagePreLocation(t *testing.T, p *PreLocation, caseID string, lat, lng float64) {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"case_id":   caseID,
		"latitude":  lat,
		"longitude": lng,
	})
	req, _ := http.NewRequest("POST", "/api/v1/prelocation", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.SetHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPreLocation_SetAndGet(t *testing.T) {
	p := NewPreLocation()
	stagePreLocation(t, p, "CASE-202503-0001", 28.6139, 77.2090)

	req, _ := http.NewRequest("GET", "/api/v1/prelocation?case_id=CASE-202503-0001", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.GetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp getPreLocationResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 28.6139, resp.Latitude)
	assert.Equal(t, 77.2090, resp.Longitude)
	assert.Equal(t, "CASE-202503-0001", resp.CaseID)
}

func TestPreLocation_SetMissingCoordinates(t *testing.T) {
	p := NewPreLocation()
	body, _ := json.Marshal(map[string]interface{}{"case_id": "CASE-202503-0001"})
	req, _ := http.NewRequest("POST", "/api/v1/prelocation", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.SetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPreLocation_GetUnknownCase(t *testing.T) {
	p := NewPreLocation()
	req, _ := http.NewRequest("GET", "/api/v1/prelocation?case_id=CASE-404", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.GetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPreLocation_EntryExpires(t *testing.T) {
	p := NewPreLocation()
	current := time.Now()
	p.now = func() time.Time { return current }

	stagePreLocation(t, p, "CASE-202503-0001", 28.6139, 77.2090)

	// sixteen minutes later the entry is gone
	current = current.Add(16 * time.Minute)

	req, _ := http.NewRequest("GET", "/api/v1/prelocation?case_id=CASE-202503-0001", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.GetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPreLocation_EntriesAreKeyedByCase(t *testing.T) {
	p := NewPreLocation()
	stagePreLocation(t, p, "CASE-202503-0001", 28.6139, 77.2090)
	stagePreLocation(t, p, "CASE-202503-0002", 19.0760, 72.8777)

	req, _ := http.NewRequest("GET", "/api/v1/prelocation?case_id=CASE-202503-0002", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(p.GetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp getPreLocationResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 19.0760, resp.Latitude)
}
