package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/engine"
	"cashflow/internal/gamesvc/models"
	"cashflow/internal/gamesvc/store/storetest"
)

type fixture struct {
	svc    *GameService
	teams  *storetest.Teams
	deals  *storetest.Deals
	logs   *storetest.Logs
	table  primitive.ObjectID
	teamA  models.Team
	teamB  models.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	teams := storetest.NewTeams()
	deals := storetest.NewDeals()
	logs := storetest.NewLogs()

	tableID := primitive.NewObjectID()
	created, err := teams.CreateMany(context.Background(), []models.Team{
		models.NewTeam(tableID, "Alpha"),
		models.NewTeam(tableID, "Bravo"),
	})
	if err != nil {
		t.Fatalf("create teams: %v", err)
	}

	return &fixture{
		svc:   NewGameService(teams, deals, logs, engine.New(rand.NewSource(1))),
		teams: teams,
		deals: deals,
		logs:  logs,
		table: tableID,
		teamA: created[0],
		teamB: created[1],
	}
}

func (f *fixture) seedDeal(cost, passive int64) models.Deal {
	return f.deals.Put(models.Deal{
		DealType:      models.DealTypeSmall,
		Name:          "Side Hustle",
		Cost:          decimal.NewFromInt(cost),
		PassiveIncome: decimal.NewFromInt(passive),
	})
}

func TestPaydayPersistsAndLogs(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Payday(context.Background(), f.table, f.teamA.ID)
	if err != nil {
		t.Fatalf("payday: %v", err)
	}

	if len(view.Teams) != 2 {
		t.Fatalf("expected full table view, got %d teams", len(view.Teams))
	}
	if !view.Teams[0].Cash.Equal(decimal.NewFromInt(650000)) {
		t.Fatalf("expected cash 650000, got %s", view.Teams[0].Cash)
	}
	if len(view.Logs) != 1 || !strings.Contains(view.Logs[0].Message, "net payday of 150000") {
		t.Fatalf("expected payday log, got %v", view.Logs)
	}

	stored, err := f.teams.GetByID(context.Background(), f.teamA.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if !stored.Cash.Equal(decimal.NewFromInt(650000)) {
		t.Fatalf("payday result was not persisted")
	}
}

func TestForeignTeamRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Payday(context.Background(), primitive.NewObjectID(), f.teamA.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for foreign table, got %v", err)
	}

	stored, _ := f.teams.GetByID(context.Background(), f.teamA.ID)
	if !stored.Cash.Equal(f.teamA.Cash) {
		t.Fatalf("rejected action must not mutate state")
	}
}

func TestUnknownTeamNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Payday(context.Background(), f.table, primitive.NewObjectID())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuyDealRecordsOwnershipOnce(t *testing.T) {
	f := newFixture(t)
	deal := f.seedDeal(50000, 5000)

	if _, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, deal.ID); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	// a second team at the same table must be rejected with funds untouched
	_, err := f.svc.BuyDeal(context.Background(), f.table, f.teamB.ID, deal.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	stored, _ := f.deals.GetByID(context.Background(), deal.ID)
	if len(stored.Owners) != 1 || stored.Owners[0].TeamID != f.teamA.ID {
		t.Fatalf("expected exactly one owner entry for team A, got %v", stored.Owners)
	}

	teamB, _ := f.teams.GetByID(context.Background(), f.teamB.ID)
	if !teamB.Cash.Equal(f.teamB.Cash) || !teamB.PassiveIncome.Equal(f.teamB.PassiveIncome) {
		t.Fatalf("rejected purchase must leave cash and passive income unchanged")
	}
}

func TestBuyDealRejectionPersistsNothing(t *testing.T) {
	f := newFixture(t)
	deal := f.seedDeal(50000, 5000)

	_, err := f.svc.FreezeAssets(context.Background(), f.table, f.teamA.ID)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}

	_, err = f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, deal.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden while frozen, got %v", err)
	}

	stored, _ := f.deals.GetByID(context.Background(), deal.ID)
	if len(stored.Owners) != 0 {
		t.Fatalf("rejected purchase must not record ownership")
	}
}

func TestBuyDealFrozenWinsOverMissingDeal(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.FreezeAssets(context.Background(), f.table, f.teamA.ID); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	// the frozen rejection must come back even when the deal does not exist
	_, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, primitive.NewObjectID())
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for frozen team, got %v", err)
	}
}

func TestBuyDealMissingDeal(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, primitive.NewObjectID())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVersionConflictRetries(t *testing.T) {
	t.Run("recovers within budget", func(t *testing.T) {
		f := newFixture(t)
		f.teams.ForceConflicts = 1

		view, err := f.svc.Payday(context.Background(), f.table, f.teamA.ID)
		if err != nil {
			t.Fatalf("payday should succeed after retry: %v", err)
		}
		if !view.Teams[0].Cash.Equal(decimal.NewFromInt(650000)) {
			t.Fatalf("expected payday applied exactly once, got %s", view.Teams[0].Cash)
		}
	})

	t.Run("exhausted budget fails transient", func(t *testing.T) {
		f := newFixture(t)
		f.teams.ForceConflicts = 3

		_, err := f.svc.Payday(context.Background(), f.table, f.teamA.ID)
		if apperr.KindOf(err) != apperr.KindTransient {
			t.Fatalf("expected transient error, got %v", err)
		}

		stored, _ := f.teams.GetByID(context.Background(), f.teamA.ID)
		if !stored.Cash.Equal(f.teamA.Cash) {
			t.Fatalf("failed action must not mutate state")
		}
	})
}

func TestBuyDealOwnerRolledBackOnLostRace(t *testing.T) {
	f := newFixture(t)
	deal := f.seedDeal(50000, 5000)
	f.teams.ForceConflicts = 1

	if _, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, deal.ID); err != nil {
		t.Fatalf("purchase should succeed after retry: %v", err)
	}

	stored, _ := f.deals.GetByID(context.Background(), deal.ID)
	if len(stored.Owners) != 1 {
		t.Fatalf("expected exactly one owner entry after retry, got %d", len(stored.Owners))
	}
}

func TestBuyDealFailedRollbackSurfacesError(t *testing.T) {
	f := newFixture(t)
	deal := f.seedDeal(50000, 5000)
	f.teams.ForceConflicts = 1
	f.deals.RemoveOwnerErr = errors.New("deal store down")

	// team write loses its version race and the compensating owner removal
	// fails too: the action must fail rather than retry, and the team must
	// be left untouched
	_, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, deal.ID)
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}

	stored, _ := f.teams.GetByID(context.Background(), f.teamA.ID)
	if !stored.Cash.Equal(f.teamA.Cash) || len(stored.DealIDs) != 0 {
		t.Fatalf("failed purchase must not mutate the team")
	}
}

func TestLogAppendFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.logs.AppendErr = errors.New("log store down")

	view, err := f.svc.Payday(context.Background(), f.table, f.teamA.ID)
	if err != nil {
		t.Fatalf("payday must not fail on log append: %v", err)
	}
	if len(view.Logs) != 0 {
		t.Fatalf("expected no logs recorded, got %v", view.Logs)
	}
	if !view.Teams[0].Cash.Equal(decimal.NewFromInt(650000)) {
		t.Fatalf("payday must still apply")
	}
}

func TestRollReturnsAdvisoryEvent(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Roll(context.Background(), f.table, f.teamA.ID)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}

	valid := map[string]bool{
		"Chance": true, "Small Deal": true, "Big Deal": true,
		"Stock": true, "Crypto": true, "Payday": true,
	}
	if !valid[view.Event] {
		t.Fatalf("unexpected event %q", view.Event)
	}
	if !view.Teams[0].Cash.Equal(f.teamA.Cash) {
		t.Fatalf("roll must not move funds")
	}
}

func TestChanceReturnsMessage(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Chance(context.Background(), f.table, f.teamA.ID)
	if err != nil {
		t.Fatalf("chance: %v", err)
	}
	if !strings.HasPrefix(view.Message, "You drew a Chance card:") {
		t.Fatalf("expected chance message, got %q", view.Message)
	}
}

func TestStateResolvesDealReferences(t *testing.T) {
	f := newFixture(t)
	deal := f.seedDeal(50000, 5000)

	if _, err := f.svc.BuyDeal(context.Background(), f.table, f.teamA.ID, deal.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	view, err := f.svc.State(context.Background(), f.table)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(view.Teams[0].Deals) != 1 || view.Teams[0].Deals[0].Name != "Side Hustle" {
		t.Fatalf("expected resolved deal on team, got %v", view.Teams[0].Deals)
	}
}

func TestDealsByTypeValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DealsByType(context.Background(), "medium")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoanRoundTripThroughDispatcher(t *testing.T) {
	f := newFixture(t)
	amount := decimal.NewFromInt(75000)

	if _, err := f.svc.BorrowLoan(context.Background(), f.table, f.teamA.ID, amount); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	view, err := f.svc.RepayLoan(context.Background(), f.table, f.teamA.ID, amount)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}

	if !view.Teams[0].Cash.Equal(f.teamA.Cash) || !view.Teams[0].PersonalLoan.Equal(f.teamA.PersonalLoan) {
		t.Fatalf("expected loan round trip to restore cash and loan")
	}
	if len(view.Logs) != 2 {
		t.Fatalf("expected borrow and repay logs, got %d", len(view.Logs))
	}
	if !strings.Contains(view.Logs[0].Message, "repaid") {
		t.Fatalf("expected newest-first ordering, got %v", view.Logs[0].Message)
	}
}
