package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

const tablesCollection = "tables"

type TableStore struct {
	col *mongo.Collection
}

func NewTableStore(db *mongo.Database) *TableStore {
	return &TableStore{col: db.Collection(tablesCollection)}
}

// Create inserts a new table. Uniqueness of username is enforced by the
// collection index, so a race between two registrations resolves here.
func (s *TableStore) Create(ctx context.Context, table models.Table) (*models.Table, error) {
	table.CreatedAt = time.Now().UTC()

	res, err := s.col.InsertOne(ctx, table)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Table username already exists")
		}
		return nil, apperr.Transient("could not create table", err)
	}

	table.ID = res.InsertedID.(primitive.ObjectID)
	return &table, nil
}

func (s *TableStore) GetByUsername(ctx context.Context, username string) (*models.Table, error) {
	var table models.Table
	err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Table not found")
		}
		return nil, apperr.Transient("could not load table", err)
	}
	return &table, nil
}

// SetTeams records the table's three team references after registration.
func (s *TableStore) SetTeams(ctx context.Context, id primitive.ObjectID, teamIDs []primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"teams": teamIDs}})
	if err != nil {
		return apperr.Transient("could not update table teams", err)
	}
	return nil
}
