package databases

// go generate: mockery --name CounterDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterName = "counters"

// CounterDatabase hands out case IDs from a per-month sequence document. The
// increment is a single findOneAndUpdate upsert, so concurrent case creations
// can never be assigned the same number.
type CounterDatabase interface {
	NextCaseID(ctx context.Context, now time.Time) (string, error)
}

type counterDatabase struct {
	db DatabaseHelper
}

// NewCounterDatabase initializes a new instance of counter database with the provided db connection
func NewCounterDatabase(db DatabaseHelper) CounterDatabase {
	return &counterDatabase{
		db: db,
	}
}

// NextCaseID atomically increments the month's sequence and formats it as
// CASE-YYYYMM-NNNN
func (c *counterDatabase) NextCaseID(ctx context.Context, now time.Time) (string, error) {
	month := fmt.Sprintf("%d%02d", now.Year(), int(now.Month()))

	after := options.After
	upsert := true
	var doc struct {
		ID  string `bson:"_id"`
		Seq int    `bson:"seq"`
	}
	err := c.db.Collection(counterName).FindOneAndUpdate(ctx,
		bson.M{"_id": "case-" + month},
		bson.M{"$inc": bson.M{"seq": 1}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after, Upsert: &upsert},
	).Decode(&doc)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("CASE-%s-%04d", month, doc.Seq), nil
}
