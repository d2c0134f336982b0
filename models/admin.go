package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin roles, from widest to narrowest scope
const (
	RoleSuperAdmin = "super_admin"
	RoleNodeAdmin  = "node_admin"
	RoleSupervisor = "supervisor"
)

// Admin account statuses
const (
	AdminStatusPending  = "pending"
	AdminStatusApproved = "approved"
	AdminStatusDeclined = "declined"
	AdminStatusInactive = "inactive"
)

// ValidAdminRole reports whether r is a known admin role
func ValidAdminRole(r string) bool {
	return r == RoleSuperAdmin || r == RoleNodeAdmin || r == RoleSupervisor
}

// Admin holds the structure for the admins collection in mongo
type Admin struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name"`
	Email     string              `json:"email" bson:"email"`
	Password  string              `json:"-" bson:"password"`
	Role      string              `json:"role" bson:"role"`
	Node      *primitive.ObjectID `json:"node,omitempty" bson:"node,omitempty"`
	Status    string              `json:"status" bson:"status"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}
