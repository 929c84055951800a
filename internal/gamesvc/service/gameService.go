package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/engine"
	"cashflow/internal/gamesvc/models"
)

// maxUpdateAttempts bounds the optimistic-lock retry loop; past it the
// action fails transient and the client may retry.
const maxUpdateAttempts = 3

// GameService is the action dispatcher: it loads the entities an action
// needs, runs the engine, persists the outcome as a unit and returns the
// refreshed table view.
type GameService struct {
	teams  TeamStore
	deals  DealStore
	logs   LogStore
	engine *engine.Engine
}

func NewGameService(teams TeamStore, deals DealStore, logs LogStore, eng *engine.Engine) *GameService {
	return &GameService{teams: teams, deals: deals, logs: logs, engine: eng}
}

// TableView is the full table state returned by every game endpoint.
type TableView struct {
	Teams   []models.Team     `json:"teams"`
	Logs    []models.TableLog `json:"logs"`
	Event   string            `json:"event,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (s *GameService) State(ctx context.Context, tableID primitive.ObjectID) (*TableView, error) {
	return s.tableView(ctx, tableID)
}

func (s *GameService) DealsByType(ctx context.Context, dealType string) ([]models.Deal, error) {
	if !models.ValidDealType(dealType) {
		return nil, apperr.Validation("Invalid deal type.")
	}
	return s.deals.ListByType(ctx, dealType)
}

func (s *GameService) Payday(ctx context.Context, tableID, teamID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.Payday(team), nil
	})
}

func (s *GameService) Roll(ctx context.Context, tableID, teamID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.Roll(team), nil
	})
}

// BuyDeal serves both the small and big endpoints; the deal itself knows
// its catalog partition.
func (s *GameService) BuyDeal(ctx context.Context, tableID, teamID, dealID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		if team.IsAssetsFrozen {
			return engine.Outcome{}, engine.ErrFrozenDeals
		}
		deal, err := s.deals.GetByID(ctx, dealID)
		if err != nil {
			return engine.Outcome{}, err
		}
		return s.engine.BuyDeal(team, *deal)
	})
}

func (s *GameService) BuyStock(ctx context.Context, tableID, teamID primitive.ObjectID, name string, amount, price decimal.Decimal) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.BuyStock(team, name, amount, price)
	})
}

func (s *GameService) BuyCrypto(ctx context.Context, tableID, teamID primitive.ObjectID, name string, amount, price decimal.Decimal) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.BuyCrypto(team, name, amount, price)
	})
}

func (s *GameService) FreezeAssets(ctx context.Context, tableID, teamID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.FreezeAssets(team), nil
	})
}

func (s *GameService) Penalty(ctx context.Context, tableID, teamID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.Penalty(team), nil
	})
}

func (s *GameService) Chance(ctx context.Context, tableID, teamID primitive.ObjectID) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.Chance(team), nil
	})
}

func (s *GameService) BorrowLoan(ctx context.Context, tableID, teamID primitive.ObjectID, amount decimal.Decimal) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.BorrowLoan(team, amount)
	})
}

func (s *GameService) RepayLoan(ctx context.Context, tableID, teamID primitive.ObjectID, amount decimal.Decimal) (*TableView, error) {
	return s.apply(ctx, tableID, teamID, func(team models.Team) (engine.Outcome, error) {
		return s.engine.RepayLoan(team, amount)
	})
}

// apply runs one action: load team, verify it belongs to the caller's
// table, run the engine, persist. The deal-owner append is the table-level
// exclusivity gate and lands first; if the team write then loses its
// version race the append is compensated and the whole action re-runs on
// fresh state, so team and deal mutations are applied as a unit or not at
// all. Log appends are best effort and never fail the action.
func (s *GameService) apply(ctx context.Context, tableID, teamID primitive.ObjectID,
	op func(models.Team) (engine.Outcome, error)) (*TableView, error) {

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 25 * time.Millisecond)
		}

		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if team.TableID != tableID {
			return nil, apperr.Forbidden("Team does not belong to this table")
		}

		out, err := op(*team)
		if err != nil {
			return nil, err
		}

		if out.Ownership != nil {
			if err := s.deals.AddOwner(ctx, out.Ownership.DealID, out.Ownership.Owner); err != nil {
				return nil, err
			}
		}

		if err := s.teams.Update(ctx, out.Team); err != nil {
			if out.Ownership != nil {
				if rbErr := s.deals.RemoveOwner(ctx, out.Ownership.DealID, out.Ownership.Owner); rbErr != nil {
					// Failed compensation leaves a dangling owner entry on the
					// deal with no purchase applied; it blocks this table from
					// buying the deal until removed by hand, so the ids are
					// logged and the action fails instead of retrying against
					// state that was not rolled back.
					log.Errorf("failed to roll back deal owner: deal %s table %s team %s: %v",
						out.Ownership.DealID.Hex(), tableID.Hex(), teamID.Hex(), rbErr)
					return nil, err
				}
			}
			if errors.Is(err, apperr.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		for _, message := range out.Logs {
			if err := s.logs.Append(ctx, tableID, message); err != nil {
				log.Errorf("failed to append table log: %v", err)
			}
		}

		view, err := s.tableView(ctx, tableID)
		if err != nil {
			return nil, err
		}
		view.Event = out.Event
		view.Message = out.Message
		return view, nil
	}

	return nil, apperr.Transient("team is busy, please retry", nil)
}

// tableView loads every team at the table with deal references resolved,
// plus the log feed newest first.
func (s *GameService) tableView(ctx context.Context, tableID primitive.ObjectID) (*TableView, error) {
	teams, err := s.teams.ListByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	var dealIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, team := range teams {
		for _, id := range team.DealIDs {
			if !seen[id] {
				seen[id] = true
				dealIDs = append(dealIDs, id)
			}
		}
	}

	deals, err := s.deals.ListByIDs(ctx, dealIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Deal, len(deals))
	for _, deal := range deals {
		byID[deal.ID] = deal
	}

	for i := range teams {
		resolved := make([]models.Deal, 0, len(teams[i].DealIDs))
		for _, id := range teams[i].DealIDs {
			if deal, ok := byID[id]; ok {
				resolved = append(resolved, deal)
			}
		}
		teams[i].Deals = resolved
	}

	logs, err := s.logs.ListByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.TableLog{}
	}

	return &TableView{Teams: teams, Logs: logs}, nil
}
