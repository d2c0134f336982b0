package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinate sources, in order of preference
const (
	CoordSourceGPS        = "gps"
	CoordSourceGeoJS      = "geojs"
	CoordSourceNominatim  = "nominatim"
	CoordSourceManual     = "manual"
	CoordSourceDefault    = "default"
	CoordSourceCityLookup = "city_lookup"
)

// Detection sources for a location observation
const (
	DetectionInitialReport   = "initial_report"
	DetectionFaceRecognition = "face_recognition"
	DetectionCCTV            = "cctv"
	DetectionManualUpdate    = "manual_update"
	DetectionWitnessReport   = "witness_report"
)

// Confidence levels for a location observation
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// ValidDetectionSource reports whether s is a known detection source
func ValidDetectionSource(s string) bool {
	switch s {
	case DetectionInitialReport, DetectionFaceRecognition, DetectionCCTV,
		DetectionManualUpdate, DetectionWitnessReport:
		return true
	}
	return false
}

// ValidConfidence reports whether c is a known confidence level
func ValidConfidence(c string) bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// Coordinates holds a resolved lat/lng pair plus where it came from
type Coordinates struct {
	Latitude  float64  `json:"latitude" bson:"latitude"`
	Longitude float64  `json:"longitude" bson:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Source    string   `json:"source" bson:"source"`
}

// LocationTracking holds the structure for the locationtrackings collection in
// mongo. Entries are append-only, one document per observation.
type LocationTracking struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	CaseID          string             `json:"caseId" bson:"caseId"`
	Case            primitive.ObjectID `json:"case" bson:"case"`
	Location        string             `json:"location" bson:"location"`
	Coordinates     *Coordinates       `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	DetectionSource string             `json:"detectionSource" bson:"detectionSource"`
	Confidence      string             `json:"confidence" bson:"confidence"`
	DetectionTime   time.Time          `json:"detectionTime" bson:"detectionTime"`
	ReportedBy      string             `json:"reportedBy" bson:"reportedBy"`
	AdditionalNotes string             `json:"additionalNotes,omitempty" bson:"additionalNotes,omitempty"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
