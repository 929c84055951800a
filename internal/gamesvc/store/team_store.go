package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

const teamsCollection = "teams"

type TeamStore struct {
	col *mongo.Collection
}

func NewTeamStore(db *mongo.Database) *TeamStore {
	return &TeamStore{col: db.Collection(teamsCollection)}
}

func (s *TeamStore) CreateMany(ctx context.Context, teams []models.Team) ([]models.Team, error) {
	docs := make([]interface{}, len(teams))
	for i, team := range teams {
		docs[i] = team
	}

	res, err := s.col.InsertMany(ctx, docs)
	if err != nil {
		return nil, apperr.Transient("could not create teams", err)
	}

	for i, id := range res.InsertedIDs {
		teams[i].ID = id.(primitive.ObjectID)
	}
	return teams, nil
}

func (s *TeamStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	var team models.Team
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, apperr.Transient("could not load team", err)
	}
	return &team, nil
}

func (s *TeamStore) ListByTable(ctx context.Context, tableID primitive.ObjectID) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{"table_id": tableID}, opts)
	if err != nil {
		return nil, apperr.Transient("could not list teams", err)
	}

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, apperr.Transient("could not decode teams", err)
	}
	return teams, nil
}

// Update persists a mutated team with an optimistic version check. A lost
// race returns apperr.ErrVersionConflict so the caller can re-read and retry;
// every team mutation in the service goes through this single writer path.
func (s *TeamStore) Update(ctx context.Context, team models.Team) error {
	filter := bson.M{"_id": team.ID, "version": team.Version}
	update := bson.M{
		"$set": bson.M{
			"cash":               team.Cash,
			"income":             team.Income,
			"passive_income":     team.PassiveIncome,
			"assets":             team.Assets,
			"expenses":           team.Expenses,
			"small_deal_loan":    team.SmallDealLoan,
			"big_deal_loan":      team.BigDealLoan,
			"personal_loan":      team.PersonalLoan,
			"loan_interest_rate": team.LoanInterestRate,
			"is_assets_frozen":   team.IsAssetsFrozen,
			"payday_frozen_turn": team.PaydayFrozenTurn,
			"deals":              team.DealIDs,
			"stocks":             team.Stocks,
			"crypto":             team.Crypto,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Transient("could not save team", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrVersionConflict
	}
	return nil
}
