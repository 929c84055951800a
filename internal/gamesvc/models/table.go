package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleManager    = "manager"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

// Table is a game session and the tenancy boundary: every team, deal
// ownership entry and log line is scoped to a table id.
type Table struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username  string               `bson:"username" json:"username"`
	Password  string               `bson:"password" json:"-"` // bcrypt hash
	Role      string               `bson:"role" json:"role"`
	TeamIDs   []primitive.ObjectID `bson:"teams" json:"teams"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
