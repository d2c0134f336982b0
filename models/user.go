package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User account statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User holds the structure for the users collection in mongo. A user is a
// reporting citizen and owns zero or more cases.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Username     string             `json:"username" bson:"username"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"-" bson:"password,omitempty"`
	AdhaarNumber string             `json:"adhaarNumber" bson:"adhaarNumber"`
	Picture      string             `json:"picture,omitempty" bson:"picture,omitempty"`
	Source       string             `json:"source" bson:"source"`
	Role         string             `json:"role" bson:"role"`
	Status       string             `json:"status" bson:"status"`
	JoinedDate   time.Time          `json:"joined_date" bson:"joined_date"`
}
