package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/service"
)

type teamRequest struct {
	TeamID string `json:"teamId"`
}

type dealRequest struct {
	TeamID string `json:"teamId"`
	DealID string `json:"dealId"`
}

type marketRequest struct {
	TeamID string          `json:"teamId"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

type loanRequest struct {
	TeamID string          `json:"teamId"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) StateHandler(w http.ResponseWriter, r *http.Request) {
	tableID, err := h.tableID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.game.State(r.Context(), tableID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}

func (h *Handler) DealsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.tableID(r); err != nil {
		h.writeError(w, err)
		return
	}

	deals, err := h.game.DealsByType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: map[string]interface{}{"deals": deals}})
}

// teamAction factors the shared shape of the body-only-teamId endpoints.
func (h *Handler) teamAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, tableID, teamID primitive.ObjectID) (*service.TableView, error)) {

	tableID, err := h.tableID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req teamRequest
	if !h.decode(w, r, &req) {
		return
	}
	teamID, err := parseID(req.TeamID, "teamId")
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := action(r.Context(), tableID, teamID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}

func (h *Handler) PaydayHandler(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.game.Payday)
}

func (h *Handler) RollHandler(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.game.Roll)
}

func (h *Handler) PenaltyHandler(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.game.Penalty)
}

func (h *Handler) ChanceHandler(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.game.Chance)
}

func (h *Handler) FreezeHandler(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.game.FreezeAssets)
}

func (h *Handler) BuyDealHandler(w http.ResponseWriter, r *http.Request) {
	tableID, err := h.tableID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req dealRequest
	if !h.decode(w, r, &req) {
		return
	}
	teamID, err := parseID(req.TeamID, "teamId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	dealID, err := parseID(req.DealID, "dealId")
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.game.BuyDeal(r.Context(), tableID, teamID, dealID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}

func (h *Handler) BuyStockHandler(w http.ResponseWriter, r *http.Request) {
	h.marketAction(w, r, h.game.BuyStock)
}

func (h *Handler) BuyCryptoHandler(w http.ResponseWriter, r *http.Request) {
	h.marketAction(w, r, h.game.BuyCrypto)
}

func (h *Handler) marketAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, tableID, teamID primitive.ObjectID, name string, amount, price decimal.Decimal) (*service.TableView, error)) {

	tableID, err := h.tableID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req marketRequest
	if !h.decode(w, r, &req) {
		return
	}
	teamID, err := parseID(req.TeamID, "teamId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.Name == "" {
		h.writeError(w, apperr.Validation("Name is required."))
		return
	}

	view, err := action(r.Context(), tableID, teamID, req.Name, req.Amount, req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}

func (h *Handler) BorrowLoanHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, h.game.BorrowLoan)
}

func (h *Handler) RepayLoanHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, h.game.RepayLoan)
}

func (h *Handler) loanAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, tableID, teamID primitive.ObjectID, amount decimal.Decimal) (*service.TableView, error)) {

	tableID, err := h.tableID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req loanRequest
	if !h.decode(w, r, &req) {
		return
	}
	teamID, err := parseID(req.TeamID, "teamId")
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := action(r.Context(), tableID, teamID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}
