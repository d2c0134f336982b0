package databases

// go generate: mockery --name LocationTrackingDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reunite-app/missing-persons-api/models"
)

const locationTrackingName = "locationtrackings"

// LocationTrackingDatabase contains the methods to use with the location tracking collection
type LocationTrackingDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.LocationTracking, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.LocationTracking, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (interface{}, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type locationTrackingDatabase struct {
	db DatabaseHelper
}

// NewLocationTrackingDatabase initializes a new instance of location tracking database with the provided db connection
func NewLocationTrackingDatabase(db DatabaseHelper) LocationTrackingDatabase {
	return &locationTrackingDatabase{
		db: db,
	}
}

func (l *locationTrackingDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LocationTracking, error) {
	tracking := &models.LocationTracking{}
	err := l.db.Collection(locationTrackingName).FindOne(ctx, filter, opts...).Decode(&tracking)
	if err != nil {
		return nil, err
	}
	return tracking, nil
}

func (l *locationTrackingDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LocationTracking, error) {
	var trackings []models.LocationTracking
	err := l.db.Collection(locationTrackingName).Find(ctx, filter, opts...).Decode(&trackings)
	if err != nil {
		return nil, err
	}
	return trackings, nil
}

func (l *locationTrackingDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return l.db.Collection(locationTrackingName).InsertOne(ctx, document, opts...)
}

func (l *locationTrackingDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return l.db.Collection(locationTrackingName).CountDocuments(ctx, filter, opts...)
}
