// Package storetest provides in-memory store fakes with the same
// concurrency semantics as the mongo stores: version-checked team updates
// and conditional deal-owner appends. Service and handler tests run against
// these instead of a live database.
package storetest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

type Tables struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Table
}

func NewTables() *Tables {
	return &Tables{docs: map[primitive.ObjectID]models.Table{}}
}

func (s *Tables) Create(_ context.Context, table models.Table) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs {
		if existing.Username == table.Username {
			return nil, apperr.Conflict("Table username already exists")
		}
	}

	table.ID = primitive.NewObjectID()
	table.CreatedAt = time.Now().UTC()
	s.docs[table.ID] = table
	return &table, nil
}

func (s *Tables) GetByUsername(_ context.Context, username string) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range s.docs {
		if table.Username == username {
			t := table
			return &t, nil
		}
	}
	return nil, apperr.NotFound("Table not found")
}

func (s *Tables) SetTeams(_ context.Context, id primitive.ObjectID, teamIDs []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.docs[id]
	if !ok {
		return apperr.NotFound("Table not found")
	}
	table.TeamIDs = teamIDs
	s.docs[id] = table
	return nil
}

type Teams struct {
	mu    sync.Mutex
	docs  map[primitive.ObjectID]models.Team
	order []primitive.ObjectID

	// ForceConflicts makes the next N updates lose their version check,
	// for exercising the dispatcher's retry loop.
	ForceConflicts int
}

func NewTeams() *Teams {
	return &Teams{docs: map[primitive.ObjectID]models.Team{}}
}

func (s *Teams) CreateMany(_ context.Context, teams []models.Team) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range teams {
		teams[i].ID = primitive.NewObjectID()
		s.docs[teams[i].ID] = teams[i]
		s.order = append(s.order, teams[i].ID)
	}
	return teams, nil
}

func (s *Teams) GetByID(_ context.Context, id primitive.ObjectID) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.docs[id]
	if !ok {
		return nil, apperr.NotFound("Team not found")
	}
	return &team, nil
}

func (s *Teams) ListByTable(_ context.Context, tableID primitive.ObjectID) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var teams []models.Team
	for _, id := range s.order {
		if s.docs[id].TableID == tableID {
			teams = append(teams, s.docs[id])
		}
	}
	return teams, nil
}

func (s *Teams) Update(_ context.Context, team models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ForceConflicts > 0 {
		s.ForceConflicts--
		return apperr.ErrVersionConflict
	}

	current, ok := s.docs[team.ID]
	if !ok || current.Version != team.Version {
		return apperr.ErrVersionConflict
	}

	team.Version++
	s.docs[team.ID] = team
	return nil
}

type Deals struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Deal

	// RemoveOwnerErr, when set, fails every owner removal, for exercising
	// the dispatcher's failed-compensation branch.
	RemoveOwnerErr error
}

func NewDeals() *Deals {
	return &Deals{docs: map[primitive.ObjectID]models.Deal{}}
}

// Put seeds a deal, assigning an id when missing.
func (s *Deals) Put(deal models.Deal) models.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deal.ID.IsZero() {
		deal.ID = primitive.NewObjectID()
	}
	s.docs[deal.ID] = deal
	return deal
}

func (s *Deals) GetByID(_ context.Context, id primitive.ObjectID) (*models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.docs[id]
	if !ok {
		return nil, apperr.NotFound("Deal not found.")
	}
	return &deal, nil
}

func (s *Deals) ListByType(_ context.Context, dealType string) ([]models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deals []models.Deal
	for _, deal := range s.docs {
		if deal.DealType == dealType {
			deals = append(deals, deal)
		}
	}
	return deals, nil
}

func (s *Deals) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deals []models.Deal
	for _, id := range ids {
		if deal, ok := s.docs[id]; ok {
			deals = append(deals, deal)
		}
	}
	return deals, nil
}

func (s *Deals) AddOwner(_ context.Context, dealID primitive.ObjectID, owner models.DealOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.docs[dealID]
	if !ok {
		return apperr.NotFound("Deal not found.")
	}
	for _, o := range deal.Owners {
		if o.TableID == owner.TableID {
			return apperr.Conflict("This deal is already owned by a team on this table.")
		}
	}
	deal.Owners = append(deal.Owners, owner)
	s.docs[dealID] = deal
	return nil
}

func (s *Deals) RemoveOwner(_ context.Context, dealID primitive.ObjectID, owner models.DealOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RemoveOwnerErr != nil {
		return s.RemoveOwnerErr
	}

	deal, ok := s.docs[dealID]
	if !ok {
		return nil
	}
	kept := deal.Owners[:0]
	for _, o := range deal.Owners {
		if o != owner {
			kept = append(kept, o)
		}
	}
	deal.Owners = kept
	s.docs[dealID] = deal
	return nil
}

type Logs struct {
	mu      sync.Mutex
	entries []models.TableLog

	// AppendErr, when set, fails every append; the dispatcher must swallow it.
	AppendErr error
}

func NewLogs() *Logs {
	return &Logs{}
}

func (s *Logs) Append(_ context.Context, tableID primitive.ObjectID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AppendErr != nil {
		return s.AppendErr
	}

	s.entries = append(s.entries, models.TableLog{
		ID:        primitive.NewObjectID(),
		TableID:   tableID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Logs) ListByTable(_ context.Context, tableID primitive.ObjectID) ([]models.TableLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []models.TableLog
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TableID == tableID {
			logs = append(logs, s.entries[i])
		}
	}
	return logs, nil
}
