package users

import (
	"net/http"
	"time"

	"inverpulse/database"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"
)

// SignalsHandler lists active, unexpired signals the investor's tier may view.
func SignalsHandler(w http.ResponseWriter, r *http.Request) {
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}
	_, limit, offset := utils.Pagination(r)

	var signals []models.TradingSignal
	err := database.DB.WithContext(r.Context()).
		Where("status = ? AND expires_at > ? AND min_level_required IN ?",
			models.SignalActive, time.Now(), tiers.VisibleTiers(investor.Level)).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&signals).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	bundle := tiers.RequirementsFor(investor.Level)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"level":           investor.Level,
			"signals_per_day": bundle.SignalsPerDay,
			"days_active":     bundle.DaysActive,
			"signals":         signals,
		},
	})
}
