package databases

// go generate: mockery --name NodeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reunite-app/missing-persons-api/models"
)

const nodeName = "nodes"

// NodeDatabase contains the methods to use with the node collection
type NodeDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Node, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Node, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (interface{}, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type nodeDatabase struct {
	db DatabaseHelper
}

// NewNodeDatabase initializes a new instance of node database with the provided db connection
func NewNodeDatabase(db DatabaseHelper) NodeDatabase {
	return &nodeDatabase{
		db: db,
	}
}

func (n *nodeDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Node, error) {
	node := &models.Node{}
	err := n.db.Collection(nodeName).FindOne(ctx, filter, opts...).Decode(&node)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (n *nodeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Node, error) {
	var nodes []models.Node
	err := n.db.Collection(nodeName).Find(ctx, filter, opts...).Decode(&nodes)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (n *nodeDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return n.db.Collection(nodeName).InsertOne(ctx, document, opts...)
}

func (n *nodeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return n.db.Collection(nodeName).DeleteOne(ctx, filter, opts...)
}

func (n *nodeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return n.db.Collection(nodeName).CountDocuments(ctx, filter, opts...)
}
