package tracking_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/databases/mocks"
	"github.com/reunite-app/missing-persons-api/geo"
	"github.com/reunite-app/missing-persons-api/models"
	"github.com/reunite-app/missing-persons-api/tracking"
)

func testResolver(t *testing.T) (*geo.Resolver, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"28.6315","lon":"77.2167","display_name":"Connaught Place"}]`))
	}))
	resolver := geo.NewResolver()
	resolver.NominatimURL = server.URL
	resolver.GeoJSURL = server.URL
	return resolver, server.Close
}

func TestTracker_RecordObservationWithCoordinates(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	insertedID := primitive.NewObjectID()
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertedID, nil)
	db.On("Collection", "locationtrackings").Return(conn)

	tracker := tracking.NewTracker(nil, databases.NewLocationTrackingDatabase(db), nil)

	caseDoc := &models.Case{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0001"}
	entry, err := tracker.RecordObservation(context.Background(), caseDoc, tracking.Observation{
		Location:        "Sector 18, Noida",
		Coordinates:     &models.Coordinates{Latitude: 28.57, Longitude: 77.32, Source: models.CoordSourceGPS},
		DetectionSource: models.DetectionFaceRecognition,
		Confidence:      models.ConfidenceHigh,
	})

	assert.NoError(t, err)
	assert.Equal(t, insertedID, entry.ID)
	assert.Equal(t, "CASE-202503-0001", entry.CaseID)
	assert.Equal(t, models.CoordSourceGPS, entry.Coordinates.Source)
	assert.True(t, entry.IsActive)
	assert.Equal(t, "system", entry.ReportedBy)
	assert.False(t, entry.DetectionTime.IsZero())
}

func TestTracker_RecordObservationDoesNotMutateCallerCoordinates(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	db.On("Collection", "locationtrackings").Return(conn)

	tracker := tracking.NewTracker(nil, databases.NewLocationTrackingDatabase(db), nil)

	supplied := &models.Coordinates{Latitude: 28.57, Longitude: 77.32}
	caseDoc := &models.Case{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0003"}
	entry, err := tracker.RecordObservation(context.Background(), caseDoc, tracking.Observation{
		Location:        "Sector 18, Noida",
		Coordinates:     supplied,
		DetectionSource: models.DetectionWitnessReport,
		Confidence:      models.ConfidenceLow,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.CoordSourceManual, entry.Coordinates.Source)
	// defaulting the source must not leak into the supplied struct
	assert.Empty(t, supplied.Source)
}

func TestTracker_RecordObservationResolvesMissingCoordinates(t *testing.T) {
	resolver, closeServer := testResolver(t)
	defer closeServer()

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	db.On("Collection", "locationtrackings").Return(conn)

	tracker := tracking.NewTracker(nil, databases.NewLocationTrackingDatabase(db), resolver)

	caseDoc := &models.Case{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0002"}
	entry, err := tracker.RecordObservation(context.Background(), caseDoc, tracking.Observation{
		Location:        "Connaught Place",
		DetectionSource: models.DetectionManualUpdate,
		Confidence:      models.ConfidenceMedium,
	})

	assert.NoError(t, err)
	assert.Equal(t, 28.6315, entry.Coordinates.Latitude)
	assert.Equal(t, models.CoordSourceNominatim, entry.Coordinates.Source)
}

func TestTracker_LatestNoObservations(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "locationtrackings").Return(conn)

	tracker := tracking.NewTracker(nil, databases.NewLocationTrackingDatabase(db), nil)

	entry, err := tracker.Latest(context.Background(), "CASE-202503-0001")

	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestTracker_BackfillAllSkipsTrackedCases(t *testing.T) {
	resolver, closeServer := testResolver(t)
	defer closeServer()

	db := &mocks.DatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	locConn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Case)
		*arg = []models.Case{
			{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0001", LastSeenLocation: "Delhi", DateMissing: time.Now().AddDate(0, 0, -3)},
			{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0002", LastSeenLocation: "Mumbai"},
		}
	})
	caseConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor)

	// first case already tracked, second needs an entry
	locConn.On("CountDocuments", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		if !ok {
			return false
		}
		return m["caseId"] == "CASE-202503-0001"
	})).Return(int64(1), nil)
	locConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	locConn.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)

	db.On("Collection", "cases").Return(caseConn)
	db.On("Collection", "locationtrackings").Return(locConn)

	tracker := tracking.NewTracker(
		databases.NewCaseDatabase(db),
		databases.NewLocationTrackingDatabase(db),
		resolver,
	)
	tracker.Delay = 0

	result, err := tracker.BackfillAll(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Errors)
}

func TestTracker_BackfillAllCollectsErrors(t *testing.T) {
	resolver, closeServer := testResolver(t)
	defer closeServer()

	db := &mocks.DatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	locConn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Case)
		*arg = []models.Case{
			{ID: primitive.NewObjectID(), CaseID: "CASE-202503-0001", LastSeenLocation: "Delhi"},
		}
	})
	caseConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor)
	locConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	locConn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	db.On("Collection", "cases").Return(caseConn)
	db.On("Collection", "locationtrackings").Return(locConn)

	tracker := tracking.NewTracker(
		databases.NewCaseDatabase(db),
		databases.NewLocationTrackingDatabase(db),
		resolver,
	)
	tracker.Delay = 0

	result, err := tracker.BackfillAll(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Updated)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "CASE-202503-0001", result.Errors[0].CaseID)
}
