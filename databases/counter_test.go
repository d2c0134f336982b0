package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/databases/mocks"
)

func TestCounterDatabase_NextCaseID(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*struct {
			ID  string `bson:"_id"`
			Seq int    `bson:"seq"`
		})
		arg.Seq = 7
	})
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "counters").Return(conn)

	counter := databases.NewCounterDatabase(db)
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

	caseID, err := counter.NextCaseID(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, "CASE-202503-0007", caseID)
}

func TestCounterDatabase_NextCaseIDError(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "counters").Return(conn)

	counter := databases.NewCounterDatabase(db)

	caseID, err := counter.NextCaseID(context.Background(), time.Now())

	assert.Error(t, err)
	assert.Empty(t, caseID)
}
