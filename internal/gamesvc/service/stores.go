package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/models"
)

// Store contracts consumed by the services. The mongo implementations live
// in the store package; tests substitute the in-memory fakes from storetest.

type TableStore interface {
	Create(ctx context.Context, table models.Table) (*models.Table, error)
	GetByUsername(ctx context.Context, username string) (*models.Table, error)
	SetTeams(ctx context.Context, id primitive.ObjectID, teamIDs []primitive.ObjectID) error
}

type TeamStore interface {
	CreateMany(ctx context.Context, teams []models.Team) ([]models.Team, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Team, error)
	ListByTable(ctx context.Context, tableID primitive.ObjectID) ([]models.Team, error)
	Update(ctx context.Context, team models.Team) error
}

type DealStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error)
	ListByType(ctx context.Context, dealType string) ([]models.Deal, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Deal, error)
	AddOwner(ctx context.Context, dealID primitive.ObjectID, owner models.DealOwner) error
	RemoveOwner(ctx context.Context, dealID primitive.ObjectID, owner models.DealOwner) error
}

type LogStore interface {
	Append(ctx context.Context, tableID primitive.ObjectID, message string) error
	ListByTable(ctx context.Context, tableID primitive.ObjectID) ([]models.TableLog, error)
}
