package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TableLog is one append-only narration line. It is an audit trail, never
// the source of truth for state.
type TableLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TableID   primitive.ObjectID `bson:"table_id" json:"tableId"`
	Message   string             `bson:"message" json:"message"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
