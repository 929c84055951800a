package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/service"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	auth      *service.AuthService
	game      *service.GameService
}

func NewHandler(tokenAuth *jwtauth.JWTAuth, auth *service.AuthService, game *service.GameService) *Handler {
	return &Handler{tokenAuth: tokenAuth, auth: auth, game: game}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// writeError maps the error taxonomy onto HTTP statuses. Unexpected errors
// surface as a generic 500 and are logged with their detail server side.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}

	h.CreateResponse(w, Response{
		Message: apperr.Message(err),
		Code:    status,
		Error:   apperr.Message(err),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, apperr.Validation("Invalid request body."))
		return false
	}
	return true
}

// tableID resolves the authenticated table identity from the verified token.
func (h *Handler) tableID(r *http.Request) (primitive.ObjectID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("Invalid token")
	}

	raw, _ := claims["table_id"].(string)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("Invalid token")
	}
	return id, nil
}

func parseID(value, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid " + field + ".")
	}
	return id, nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}
