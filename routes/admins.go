package routes

import (
	"net/http"
	"time"

	"inverpulse/controllers/admins"
	"inverpulse/middleware"

	"github.com/gorilla/mux"
)

func SetAdminRoutes(api *mux.Router) {
	// 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	adminRouter.Handle("/profile", http.HandlerFunc(admins.GetAdminProfile)).Methods(http.MethodGet)

	// Investors
	adminRouter.Handle("/investors", http.HandlerFunc(admins.GetInvestors)).Methods(http.MethodGet)
	adminRouter.Handle("/investors/{id}", http.HandlerFunc(admins.GetInvestorDetail)).Methods(http.MethodGet)
	adminRouter.Handle("/investors/{id}/referrals", http.HandlerFunc(admins.GetInvestorReferrals)).Methods(http.MethodGet)
	adminRouter.Handle("/investors/{id}/level", http.HandlerFunc(admins.OverrideLevel)).Methods(http.MethodPut)
	adminRouter.Handle("/investors/{id}/evaluate", http.HandlerFunc(admins.EvaluateInvestor)).Methods(http.MethodPost)
	adminRouter.Handle("/investors/{id}/kyc", http.HandlerFunc(admins.ReviewKYC)).Methods(http.MethodPut)

	// Deposits
	adminRouter.Handle("/deposits", http.HandlerFunc(admins.GetDeposits)).Methods(http.MethodGet)
	adminRouter.Handle("/deposits/{id}/confirm", http.HandlerFunc(admins.ConfirmDeposit)).Methods(http.MethodPut)
	adminRouter.Handle("/deposits/{id}/reject", http.HandlerFunc(admins.RejectDeposit)).Methods(http.MethodPut)

	// Trading signals
	adminRouter.Handle("/signals", http.HandlerFunc(admins.GetSignals)).Methods(http.MethodGet)
	adminRouter.Handle("/signals", http.HandlerFunc(admins.CreateSignal)).Methods(http.MethodPost)
	adminRouter.Handle("/signals/{id}/status", http.HandlerFunc(admins.UpdateSignalStatus)).Methods(http.MethodPut)
}
