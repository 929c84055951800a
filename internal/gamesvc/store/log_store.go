package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

const logsCollection = "table_logs"

type LogStore struct {
	col *mongo.Collection
}

func NewLogStore(db *mongo.Database) *LogStore {
	return &LogStore{col: db.Collection(logsCollection)}
}

func (s *LogStore) Append(ctx context.Context, tableID primitive.ObjectID, message string) error {
	entry := models.TableLog{
		TableID:   tableID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	if _, err := s.col.InsertOne(ctx, entry); err != nil {
		return apperr.Transient("could not append log", err)
	}
	return nil
}

func (s *LogStore) ListByTable(ctx context.Context, tableID primitive.ObjectID) ([]models.TableLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := s.col.Find(ctx, bson.M{"table_id": tableID}, opts)
	if err != nil {
		return nil, apperr.Transient("could not list logs", err)
	}

	var logs []models.TableLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, apperr.Transient("could not decode logs", err)
	}
	return logs, nil
}
