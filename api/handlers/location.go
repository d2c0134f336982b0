package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/config"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/geo"
	"github.com/reunite-app/missing-persons-api/models"
	"github.com/reunite-app/missing-persons-api/tracking"
)

// Location exported for testing purposes
type Location struct {
	DB      databases.CaseDatabase
	Tracker *tracking.Tracker
}

// locationEntry is the wire form of one timeline item
type locationEntry struct {
	ID          string              `json:"id"`
	Location    string              `json:"location"`
	Timestamp   time.Time           `json:"timestamp"`
	Source      string              `json:"source"`
	Confidence  string              `json:"confidence"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Notes       string              `json:"notes,omitempty"`
}

type locationsResponse struct {
	Success   bool            `json:"success"`
	CaseID    string          `json:"caseId"`
	Locations []locationEntry `json:"locations"`
}

// humanizeSource maps stored detection sources to display labels
func humanizeSource(source string) string {
	switch source {
	case models.DetectionFaceRecognition:
		return "Face Recognition"
	case models.DetectionInitialReport:
		return "Initial Report"
	case models.DetectionCCTV:
		return "CCTV Detection"
	case models.DetectionWitnessReport:
		return "Witness Report"
	default:
		return "Manual Update"
	}
}

// CaseLocationsHandler returns the location timeline for a case, most recent
// first. A case with no timeline yet gets an initial observation synthesized
// from its last-seen location; an unknown case yields an empty list rather
// than an error so polling clients stay simple.
func (l Location) CaseLocationsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	projection := bson.M{"caseId": 1, "lastSeenLocation": 1, "dateMissing": 1, "status": 1}
	caseDoc, err := l.DB.FindOne(ctx, caseIDFilter(id), &options.FindOneOptions{Projection: projection})
	if err != nil {
		b, _ := json.Marshal(locationsResponse{Success: true, CaseID: id, Locations: []locationEntry{}})
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	timeline, err := l.Tracker.EnsureInitialObservation(ctx, caseDoc)
	if err != nil {
		config.ErrorStatus("failed to load location history", http.StatusInternalServerError, w, err)
		return
	}

	entries := make([]locationEntry, 0, len(timeline))
	for _, item := range timeline {
		entries = append(entries, locationEntry{
			ID:          item.ID.Hex(),
			Location:    item.Location,
			Timestamp:   item.DetectionTime,
			Source:      humanizeSource(item.DetectionSource),
			Confidence:  item.Confidence,
			Coordinates: item.Coordinates,
			Notes:       item.AdditionalNotes,
		})
	}

	b, err := json.Marshal(locationsResponse{Success: true, CaseID: caseDoc.CaseID, Locations: entries})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type addLocationRequest struct {
	Location        string              `json:"location"`
	Coordinates     *models.Coordinates `json:"coordinates"`
	DetectionSource string              `json:"detectionSource"`
	Confidence      string              `json:"confidence"`
	DetectionTime   string              `json:"detectionTime"`
	ReportedBy      string              `json:"reportedBy"`
	AdditionalNotes string              `json:"additionalNotes"`
}

type addLocationResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	LocationID  string              `json:"locationId"`
	Coordinates *models.Coordinates `json:"coordinates"`
}

// AddLocationHandler appends a sighting to a case's timeline. This is the
// ingest point for the face recognition collaborator, so the defaults lean
// that way.
func (l Location) AddLocationHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["case_id"]

	var req addLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Location == "" && req.Coordinates == nil {
		config.ErrorStatus("location or coordinates must be provided", http.StatusBadRequest, w, fmt.Errorf("empty sighting"))
		return
	}
	if req.Coordinates != nil && !geo.ValidCoordinates(req.Coordinates.Latitude, req.Coordinates.Longitude) {
		config.ErrorStatus("coordinates are out of range", http.StatusBadRequest, w,
			fmt.Errorf("lat %v lng %v outside bounds", req.Coordinates.Latitude, req.Coordinates.Longitude))
		return
	}

	source := req.DetectionSource
	if source == "" {
		source = models.DetectionFaceRecognition
	}
	if !models.ValidDetectionSource(source) {
		config.ErrorStatus("invalid detection source", http.StatusBadRequest, w, fmt.Errorf("unknown detection source %q", source))
		return
	}
	confidence := req.Confidence
	if confidence == "" {
		confidence = models.ConfidenceMedium
	}
	if !models.ValidConfidence(confidence) {
		config.ErrorStatus("invalid confidence level", http.StatusBadRequest, w, fmt.Errorf("unknown confidence %q", confidence))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseDoc, err := l.DB.FindOne(ctx, caseIDFilter(id), &options.FindOneOptions{
		Projection: bson.M{"caseId": 1, "status": 1},
	})
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}

	var detectionTime time.Time
	if req.DetectionTime != "" {
		if parsed, err := parseDate(req.DetectionTime); err == nil {
			detectionTime = parsed
		}
	}

	entry, err := l.Tracker.RecordObservation(ctx, caseDoc, tracking.Observation{
		Location:        req.Location,
		Coordinates:     req.Coordinates,
		DetectionSource: source,
		Confidence:      confidence,
		DetectionTime:   detectionTime,
		ReportedBy:      req.ReportedBy,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		config.ErrorStatus("failed to record location", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(addLocationResponse{
		Success:     true,
		Message:     "Location recorded successfully",
		LocationID:  entry.ID.Hex(),
		Coordinates: entry.Coordinates,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
