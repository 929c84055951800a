package handlers

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/shopspring/decimal"

	"cashflow/internal/gamesvc/engine"
	"cashflow/internal/gamesvc/models"
	"cashflow/internal/gamesvc/service"
	"cashflow/internal/gamesvc/store/storetest"
)

type env struct {
	router *chi.Mux
	deals  *storetest.Deals
}

func newEnv(t *testing.T) *env {
	t.Helper()

	tables := storetest.NewTables()
	teams := storetest.NewTeams()
	deals := storetest.NewDeals()
	logs := storetest.NewLogs()

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	auth := service.NewAuthService(tables, teams, tokenAuth)
	game := service.NewGameService(teams, deals, logs, engine.New(rand.NewSource(1)))

	r := chi.NewRouter()
	h := NewHandler(tokenAuth, auth, game)
	h.SetRoutes(r)

	return &env{router: r, deals: deals}
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type authPayload struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Teams []struct {
		ID   string          `json:"id"`
		Name string          `json:"name"`
		Cash decimal.Decimal `json:"cash"`
	} `json:"teams"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	var rsp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rsp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(rsp.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func (e *env) register(t *testing.T, username string) authPayload {
	t.Helper()

	w := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username":  username,
		"password":  "secret",
		"team1Name": "Alpha",
		"team2Name": "Bravo",
		"team3Name": "Charlie",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	var res authPayload
	decodeData(t, w, &res)
	return res
}

func TestRegisterLoginAndPlay(t *testing.T) {
	e := newEnv(t)

	reg := e.register(t, "friday-night")
	if len(reg.Teams) != 3 {
		t.Fatalf("registered teams = %d, want 3", len(reg.Teams))
	}
	if reg.Token == "" {
		t.Fatal("register returned no token")
	}

	w := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "friday-night",
		"password": "secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var login authPayload
	decodeData(t, w, &login)

	w = e.do(t, http.MethodGet, "/v1/game/state", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d, body %s", w.Code, w.Body.String())
	}
	var state struct {
		Teams []struct {
			Cash decimal.Decimal `json:"cash"`
		} `json:"teams"`
		Logs []models.TableLog `json:"logs"`
	}
	decodeData(t, w, &state)
	if len(state.Teams) != 3 {
		t.Fatalf("state teams = %d, want 3", len(state.Teams))
	}
	if state.Logs == nil {
		t.Fatal("state logs should be an empty array, not null")
	}

	w = e.do(t, http.MethodPost, "/v1/game/payday", login.Token, map[string]string{
		"teamId": login.Teams[0].ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("payday status = %d, body %s", w.Code, w.Body.String())
	}
	var view struct {
		Teams []struct {
			ID   string          `json:"id"`
			Cash decimal.Decimal `json:"cash"`
		} `json:"teams"`
		Logs []models.TableLog `json:"logs"`
	}
	decodeData(t, w, &view)

	// 500000 + (450000 - 300000)
	want := decimal.NewFromInt(650000)
	var got decimal.Decimal
	for _, team := range view.Teams {
		if team.ID == login.Teams[0].ID {
			got = team.Cash
		}
	}
	if !got.Equal(want) {
		t.Fatalf("cash after payday = %s, want %s", got, want)
	}
	if len(view.Logs) == 0 {
		t.Fatal("payday should append a table log")
	}
}

func TestGameRoutesRequireToken(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/v1/game/state", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodGet, "/v1/game/state", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", w.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	e := newEnv(t)

	tableA := e.register(t, "table-a")
	tableB := e.register(t, "table-b")

	deal := e.deals.Put(models.Deal{
		DealType:      models.DealTypeSmall,
		Name:          "Small Business A",
		Cost:          decimal.NewFromInt(50000),
		PassiveIncome: decimal.NewFromInt(5000),
	})

	t.Run("invalid body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/game/payday", bytes.NewBufferString("{nope"))
		req.Header.Set("Authorization", "Bearer "+tableA.Token)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("invalid deal type is 400", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/v1/game/deals/medium", tableA.Token, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("foreign team is 403", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/v1/game/payday", tableA.Token, map[string]string{
			"teamId": tableB.Teams[0].ID,
		})
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, body %s, want 403", w.Code, w.Body.String())
		}
	})

	t.Run("unknown deal is 404", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/v1/game/deal/small", tableA.Token, map[string]string{
			"teamId": tableA.Teams[0].ID,
			"dealId": "bbbbbbbbbbbbbbbbbbbbbbbb",
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, body %s, want 404", w.Code, w.Body.String())
		}
	})

	t.Run("second purchase on the same table is 409", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/v1/game/deal/small", tableA.Token, map[string]string{
			"teamId": tableA.Teams[0].ID,
			"dealId": deal.ID.Hex(),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("first purchase status = %d, body %s", w.Code, w.Body.String())
		}

		w = e.do(t, http.MethodPost, "/v1/game/deal/small", tableA.Token, map[string]string{
			"teamId": tableA.Teams[1].ID,
			"dealId": deal.ID.Hex(),
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("second purchase status = %d, body %s, want 409", w.Code, w.Body.String())
		}

		// another table is free to buy the same catalog deal
		w = e.do(t, http.MethodPost, "/v1/game/deal/small", tableB.Token, map[string]string{
			"teamId": tableB.Teams[0].ID,
			"dealId": deal.ID.Hex(),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("other table purchase status = %d, body %s", w.Code, w.Body.String())
		}
	})
}

func TestDealsByTypeListing(t *testing.T) {
	e := newEnv(t)
	table := e.register(t, "listing")

	e.deals.Put(models.Deal{DealType: models.DealTypeSmall, Name: "Side Hustle",
		Cost: decimal.NewFromInt(25000), PassiveIncome: decimal.NewFromInt(2500)})
	e.deals.Put(models.Deal{DealType: models.DealTypeBig, Name: "Hotel Franchise E",
		Cost: decimal.NewFromInt(2000000), PassiveIncome: decimal.NewFromInt(200000)})

	w := e.do(t, http.MethodGet, "/v1/game/deals/small", table.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var data struct {
		Deals []models.Deal `json:"deals"`
	}
	decodeData(t, w, &data)
	if len(data.Deals) != 1 || data.Deals[0].Name != "Side Hustle" {
		t.Fatalf("deals = %+v, want the one small deal", data.Deals)
	}
}

func TestHealthIsPublic(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
}
