package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"inverpulse/config"
	"inverpulse/controllers"
	"inverpulse/controllers/users"
	"inverpulse/middleware"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultOrigins = []string{
	"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080",
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "inverpulse-api",
	})
}

func InitRouter(cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	r.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	origins := append(append([]string{}, defaultOrigins...), cfg.AllowedOrigins...)
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)

	// Registered ahead of /v1 so the multipart upload gets its own body cap
	// instead of the JSON one.
	r.Handle("/v1/users/kyc", middleware.MaxBodyMiddleware(users.MaxKYCBodyBytes)(
		middleware.AuthMiddleware(userLimiter.Middleware(http.HandlerFunc(users.SubmitKYCHandler))),
	)).Methods(http.MethodPost)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(middleware.MaxBodyMiddleware(cfg.MaxBodyBytes))

	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Requirement table
	api.Handle("/levels", http.HandlerFunc(controllers.LevelsHandler)).Methods(http.MethodGet)
	api.Handle("/levels/{tier}", http.HandlerFunc(controllers.LevelHandler)).Methods(http.MethodGet)

	// Cron endpoint for signal expiry (protected via X-CRON-KEY header)
	cronLimiter := middleware.NewIPRateLimiter(1000, time.Hour)
	api.Handle("/cron/expire-signals", cronLimiter.Middleware(http.HandlerFunc(controllers.ExpireSignalsHandler))).Methods(http.MethodPost)

	UsersRoutes(api, userLimiter)
	SetAdminRoutes(api)

	return r
}
