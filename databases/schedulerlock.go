package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerlocks"

// SchedulerLockDatabase coordinates background jobs across instances. A job
// runs only on the instance that wins the lock document for this window.
type SchedulerLockDatabase interface {
	Acquire(ctx context.Context, job, instanceID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// Acquire takes the lock for job if it is free or expired. Returns false when
// another live instance holds it.
func (s *schedulerLockDatabase) Acquire(ctx context.Context, job, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	after := options.After
	upsert := true

	var lock struct {
		Holder    string    `bson:"holder"`
		ExpiresAt time.Time `bson:"expiresAt"`
	}
	err := s.db.Collection(schedulerLockName).FindOneAndUpdate(ctx,
		bson.M{
			"_id": job,
			"$or": []bson.M{
				{"holder": instanceID},
				{"expiresAt": bson.M{"$lt": now}},
				{"expiresAt": bson.M{"$exists": false}},
			},
		},
		bson.M{"$set": bson.M{"holder": instanceID, "expiresAt": now.Add(ttl)}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after, Upsert: &upsert},
	).Decode(&lock)
	if err != nil {
		// a duplicate-key error here means another instance upserted first
		return false, nil
	}
	return lock.Holder == instanceID, nil
}

func (s *schedulerLockDatabase) Release(ctx context.Context, job, instanceID string) error {
	return s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": job, "holder": instanceID})
}
