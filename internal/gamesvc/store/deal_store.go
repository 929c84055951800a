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

const dealsCollection = "deals"

type DealStore struct {
	col *mongo.Collection
}

func NewDealStore(db *mongo.Database) *DealStore {
	return &DealStore{col: db.Collection(dealsCollection)}
}

func (s *DealStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	var deal models.Deal
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&deal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Deal not found.")
		}
		return nil, apperr.Transient("could not load deal", err)
	}
	return &deal, nil
}

func (s *DealStore) ListByType(ctx context.Context, dealType string) ([]models.Deal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cost", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{"deal_type": dealType}, opts)
	if err != nil {
		return nil, apperr.Transient("could not list deals", err)
	}

	var deals []models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, apperr.Transient("could not decode deals", err)
	}
	return deals, nil
}

func (s *DealStore) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Deal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Transient("could not list deals", err)
	}

	var deals []models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, apperr.Transient("could not decode deals", err)
	}
	return deals, nil
}

// AddOwner appends an ownership entry only if no team at the same table
// already owns the deal. The check and the append are one conditional
// update, so two concurrent purchases at the same table cannot both land.
func (s *DealStore) AddOwner(ctx context.Context, dealID primitive.ObjectID, owner models.DealOwner) error {
	filter := bson.M{
		"_id":             dealID,
		"owners.table_id": bson.M{"$ne": owner.TableID},
	}

	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"owners": owner}})
	if err != nil {
		return apperr.Transient("could not record deal owner", err)
	}
	if res.MatchedCount == 0 {
		// either the deal is gone or the table won the race elsewhere
		if _, err := s.GetByID(ctx, dealID); err != nil {
			return err
		}
		return apperr.Conflict("This deal is already owned by a team on this table.")
	}
	return nil
}

// RemoveOwner pulls an exact ownership entry. The dispatcher uses it to
// compensate a purchase whose team update could not be persisted.
func (s *DealStore) RemoveOwner(ctx context.Context, dealID primitive.ObjectID, owner models.DealOwner) error {
	filter := bson.M{"_id": dealID}
	update := bson.M{"$pull": bson.M{"owners": bson.M{
		"table_id": owner.TableID,
		"team_id":  owner.TeamID,
	}}}

	if _, err := s.col.UpdateOne(ctx, filter, update); err != nil {
		return apperr.Transient("could not remove deal owner", err)
	}
	return nil
}

// Upsert seeds one catalog deal keyed by name and type. $setOnInsert keeps
// re-seeding from touching existing ownership lists.
func (s *DealStore) Upsert(ctx context.Context, deal models.Deal) error {
	filter := bson.M{"name": deal.Name, "deal_type": deal.DealType}
	update := bson.M{"$setOnInsert": bson.M{
		"deal_type":      deal.DealType,
		"name":           deal.Name,
		"cost":           deal.Cost,
		"passive_income": deal.PassiveIncome,
		"owners":         []models.DealOwner{},
	}}

	_, err := s.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Transient("could not seed deal", err)
	}
	return nil
}
