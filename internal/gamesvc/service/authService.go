package service

import (
	"context"
	"time"

	"github.com/go-chi/jwtauth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

const tokenTTL = 1 * time.Hour

type AuthService struct {
	tables    TableStore
	teams     TeamStore
	tokenAuth *jwtauth.JWTAuth
}

func NewAuthService(tables TableStore, teams TeamStore, tokenAuth *jwtauth.JWTAuth) *AuthService {
	return &AuthService{tables: tables, teams: teams, tokenAuth: tokenAuth}
}

type RegisterInput struct {
	Username  string
	Password  string
	Role      string
	TeamNames [3]string
}

// AuthResult is the response for both register and login.
type AuthResult struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Role     string        `json:"role"`
	Teams    []models.Team `json:"teams"`
	Token    string        `json:"token"`
}

// Register creates a table with its three teams and issues a token. The
// username pre-check mirrors the login error shape; the unique index on
// username still decides any registration race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := in.Role
	if role == "" {
		role = models.RoleManager
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation("Invalid role.")
	}

	if _, err := s.tables.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperr.Conflict("Table username already exists")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Transient("could not hash password", err)
	}

	table, err := s.tables.Create(ctx, models.Table{
		Username: in.Username,
		Password: string(hash),
		Role:     role,
	})
	if err != nil {
		return nil, err
	}

	teams := []models.Team{
		models.NewTeam(table.ID, in.TeamNames[0]),
		models.NewTeam(table.ID, in.TeamNames[1]),
		models.NewTeam(table.ID, in.TeamNames[2]),
	}
	teams, err = s.teams.CreateMany(ctx, teams)
	if err != nil {
		return nil, err
	}

	teamIDs := make([]primitive.ObjectID, len(teams))
	for i, team := range teams {
		teamIDs[i] = team.ID
	}
	if err := s.tables.SetTeams(ctx, table.ID, teamIDs); err != nil {
		return nil, err
	}

	return s.result(table, teams)
}

// Login verifies the credential and returns the table with its teams.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	table, err := s.tables.GetByUsername(ctx, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("Invalid username or password")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(table.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	teams, err := s.teams.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, err
	}

	return s.result(table, teams)
}

func (s *AuthService) result(table *models.Table, teams []models.Team) (*AuthResult, error) {
	token, err := s.issueToken(table)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		ID:       table.ID.Hex(),
		Username: table.Username,
		Role:     table.Role,
		Teams:    teams,
		Token:    token,
	}, nil
}

func (s *AuthService) issueToken(table *models.Table) (string, error) {
	claims := map[string]interface{}{
		"table_id": table.ID.Hex(),
		"role":     table.Role,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}

	_, tokenString, err := s.tokenAuth.Encode(claims)
	if err != nil {
		return "", apperr.Transient("could not issue token", err)
	}
	return tokenString, nil
}
