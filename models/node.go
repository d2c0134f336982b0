package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Node holds the structure for the nodes collection in mongo. A node is a
// named regional unit that groups admins and, optionally, cases.
type Node struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name"`
	Location  string              `json:"location,omitempty" bson:"location,omitempty"`
	CreatedBy *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}
