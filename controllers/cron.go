package controllers

import (
	"crypto/subtle"
	"net/http"
	"os"
	"time"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/utils"

	"go.uber.org/zap"
)

// POST /v1/cron/expire-signals
func ExpireSignalsHandler(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-CRON-KEY")
	expected := os.Getenv("CRON_KEY")
	if key == "" || expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	n, err := database.ExpireSignals(r.Context(), database.DB, time.Now())
	if err != nil {
		logging.Named("cron").Error("expire signals failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"expired": n},
	})
}
