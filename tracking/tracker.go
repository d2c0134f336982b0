// Package tracking maintains the append-only location history for cases.
// Observations are never updated in place: each sighting, manual update, or
// synthesized initial report becomes a new document.
package tracking

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/geo"
	"github.com/reunite-app/missing-persons-api/models"
)

// backfillDelay spaces out geocoding calls during bulk work so we stay within
// the providers' informal rate limits
const backfillDelay = 500 * time.Millisecond

// Tracker reads and appends location observations for cases
type Tracker struct {
	CDB      databases.CaseDatabase
	LDB      databases.LocationTrackingDatabase
	Resolver *geo.Resolver

	// Delay between backfill items, overridable in tests
	Delay time.Duration
}

// NewTracker wires a tracker over the case and tracking collections
func NewTracker(cdb databases.CaseDatabase, ldb databases.LocationTrackingDatabase, resolver *geo.Resolver) *Tracker {
	return &Tracker{CDB: cdb, LDB: ldb, Resolver: resolver, Delay: backfillDelay}
}

// Observation is the input for a new tracking entry
type Observation struct {
	Location        string
	Coordinates     *models.Coordinates
	DetectionSource string
	Confidence      string
	DetectionTime   time.Time
	ReportedBy      string
	AdditionalNotes string
}

// RecordObservation appends a new observation for caseDoc. When coordinates
// are missing they are resolved from the location text first.
func (t *Tracker) RecordObservation(ctx context.Context, caseDoc *models.Case, obs Observation) (*models.LocationTracking, error) {
	var coords *models.Coordinates
	if obs.Coordinates != nil {
		// copy so defaulting the source below never writes into the
		// caller's request struct
		c := *obs.Coordinates
		coords = &c
	} else {
		resolved := t.Resolver.Resolve(ctx, obs.Location)
		coords = &models.Coordinates{
			Latitude:  resolved.Lat,
			Longitude: resolved.Lng,
			Source:    resolved.Source,
			Accuracy:  resolved.Accuracy,
		}
	}
	if coords.Source == "" {
		coords.Source = models.CoordSourceManual
	}

	detectionTime := obs.DetectionTime
	if detectionTime.IsZero() {
		detectionTime = time.Now()
	}
	reportedBy := obs.ReportedBy
	if reportedBy == "" {
		reportedBy = "system"
	}

	now := time.Now()
	entry := models.LocationTracking{
		CaseID:          caseDoc.CaseID,
		Case:            caseDoc.ID,
		Location:        obs.Location,
		Coordinates:     coords,
		DetectionSource: obs.DetectionSource,
		Confidence:      obs.Confidence,
		DetectionTime:   detectionTime,
		ReportedBy:      reportedBy,
		AdditionalNotes: obs.AdditionalNotes,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	insertedID, err := t.LDB.InsertOne(ctx, entry)
	if err != nil {
		return nil, err
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}
	zap.S().Infow("recorded location observation",
		"caseId", caseDoc.CaseID,
		"location", obs.Location,
		"source", entry.DetectionSource,
	)
	return &entry, nil
}

// Latest returns the most recent active observation for caseID, or nil when
// none exists
func (t *Tracker) Latest(ctx context.Context, caseID string) (*models.LocationTracking, error) {
	sort := bson.D{{Key: "detectionTime", Value: -1}}
	entry, err := t.LDB.FindOne(ctx, bson.M{"caseId": caseID, "isActive": true}, &options.FindOneOptions{Sort: sort})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// Timeline returns all active observations for caseID, most recent first
func (t *Tracker) Timeline(ctx context.Context, caseID string) ([]models.LocationTracking, error) {
	sort := bson.D{{Key: "detectionTime", Value: -1}}
	return t.LDB.Find(ctx, bson.M{"caseId": caseID, "isActive": true}, &options.FindOptions{Sort: sort})
}

// EnsureInitialObservation synthesizes a first observation from the case's
// last-seen location when the case has no timeline yet. Callers on the read
// path must tolerate the geocoding round trip on first access.
func (t *Tracker) EnsureInitialObservation(ctx context.Context, caseDoc *models.Case) ([]models.LocationTracking, error) {
	timeline, err := t.Timeline(ctx, caseDoc.CaseID)
	if err != nil {
		return nil, err
	}
	if len(timeline) > 0 {
		return timeline, nil
	}

	detectionTime := caseDoc.DateMissing
	if detectionTime.IsZero() {
		detectionTime = time.Now()
	}

	entry, err := t.RecordObservation(ctx, caseDoc, Observation{
		Location:        caseDoc.LastSeenLocation,
		DetectionSource: models.DetectionInitialReport,
		Confidence:      models.ConfidenceHigh,
		DetectionTime:   detectionTime,
		ReportedBy:      "system",
	})
	if err != nil {
		return nil, err
	}
	return []models.LocationTracking{*entry}, nil
}

// BackfillResult summarizes one bulk coordinate run
type BackfillResult struct {
	Total   int             `json:"total"`
	Updated int             `json:"updated"`
	Errors  []BackfillError `json:"errors"`
}

// BackfillError records a single case the batch could not process
type BackfillError struct {
	CaseID string `json:"caseId"`
	Error  string `json:"error"`
}

// BackfillAll creates an initial observation for every approved case that has
// a last-seen location but no tracking entry yet. Failures are collected per
// case; the batch always runs to completion.
func (t *Tracker) BackfillAll(ctx context.Context) (*BackfillResult, error) {
	cases, err := t.CDB.Find(ctx, bson.M{
		"status":           models.CaseStatusApproved,
		"lastSeenLocation": bson.M{"$exists": true, "$ne": ""},
	}, &options.FindOptions{Projection: bson.M{"caseId": 1, "lastSeenLocation": 1, "dateMissing": 1}})
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Total: len(cases), Errors: []BackfillError{}}
	for i := range cases {
		caseDoc := cases[i]

		count, err := t.LDB.CountDocuments(ctx, bson.M{"caseId": caseDoc.CaseID})
		if err != nil {
			result.Errors = append(result.Errors, BackfillError{CaseID: caseDoc.CaseID, Error: err.Error()})
			continue
		}
		if count > 0 {
			continue
		}

		detectionTime := caseDoc.DateMissing
		if detectionTime.IsZero() {
			detectionTime = time.Now()
		}
		_, err = t.RecordObservation(ctx, &caseDoc, Observation{
			Location:        caseDoc.LastSeenLocation,
			DetectionSource: models.DetectionInitialReport,
			Confidence:      models.ConfidenceHigh,
			DetectionTime:   detectionTime,
			ReportedBy:      "admin_bulk_update",
		})
		if err != nil {
			zap.S().Errorw("backfill failed for case", "caseId", caseDoc.CaseID, "error", err)
			result.Errors = append(result.Errors, BackfillError{CaseID: caseDoc.CaseID, Error: err.Error()})
			continue
		}
		result.Updated++

		if t.Delay > 0 && i < len(cases)-1 {
			time.Sleep(t.Delay)
		}
	}

	zap.S().Infow("bulk coordinate backfill completed",
		"total", result.Total,
		"updated", result.Updated,
		"errors", len(result.Errors),
	)
	return result, nil
}
