package handlers

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

// NewTokenAuth builds the HS256 verifier/signer shared by the auth service
// and the route guards.
func NewTokenAuth() *jwtauth.JWTAuth {
	jwtKey := os.Getenv("JWT_SECRET_KEY")
	return jwtauth.New("HS256", []byte(jwtKey), nil)
}

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.RegisterHandler)
			r.Post("/login", h.LoginHandler)
		})

		// Secure routes
		r.Route("/game", func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/state", h.StateHandler)
			r.Get("/deals/{type}", h.DealsHandler)

			r.Post("/payday", h.PaydayHandler)
			r.Post("/roll", h.RollHandler)
			r.Post("/penalty", h.PenaltyHandler)
			r.Post("/chance", h.ChanceHandler)
			r.Post("/freeze", h.FreezeHandler)
			r.Post("/deal/small", h.BuyDealHandler)
			r.Post("/deal/big", h.BuyDealHandler)
			r.Post("/stock", h.BuyStockHandler)
			r.Post("/crypto", h.BuyCryptoHandler)
			r.Post("/loan/borrow", h.BorrowLoanHandler)
			r.Post("/loan/repay", h.RepayLoanHandler)
		})
	})
}
