package handlers

import (
	"net/http"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/service"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Team1Name string `json:"team1Name"`
	Team2Name string `json:"team2Name"`
	Team3Name string `json:"team3Name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" ||
		req.Team1Name == "" || req.Team2Name == "" || req.Team3Name == "" {
		h.writeError(w, apperr.Validation("Username, password and three team names are required."))
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Role:      req.Role,
		TeamNames: [3]string{req.Team1Name, req.Team2Name, req.Team3Name},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "table registered", Code: http.StatusCreated, Data: res})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		h.writeError(w, apperr.Validation("Username and password are required."))
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "login ok", Code: http.StatusOK, Data: res})
}
