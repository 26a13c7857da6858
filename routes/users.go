package routes

import (
	"net/http"
	"time"

	"inverpulse/controllers/auth"
	"inverpulse/controllers/users"
	"inverpulse/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers the auth and investor routes. Authenticated routes
// run the user limiter after AuthMiddleware so it can key on the user id.
func UsersRoutes(api *mux.Router, userLimiter *middleware.UserRateLimiter) {
	// 60 per IP per 5 minutes for login/register/refresh
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)

	session := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(userLimiter.Middleware(h))
	}

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/logout", loginLimiter.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods(http.MethodPost)
	api.Handle("/logout-all", session(auth.LogoutAllHandler)).Methods(http.MethodPost)

	api.Handle("/users/info", session(users.InfoHandler)).Methods(http.MethodGet)
	api.Handle("/users/level", session(users.LevelHandler)).Methods(http.MethodGet)
	api.Handle("/users/team", session(users.TeamHandler)).Methods(http.MethodGet)
	api.Handle("/users/signals", session(users.SignalsHandler)).Methods(http.MethodGet)

	api.Handle("/users/deposits", session(users.CreateDepositHandler)).Methods(http.MethodPost)
	api.Handle("/users/deposits", session(users.ListDepositsHandler)).Methods(http.MethodGet)
}
