package users

import (
	"errors"
	"net/http"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// currentInvestor loads the investor owned by the authenticated user. On
// failure the response has been written and nil is returned.
func currentInvestor(w http.ResponseWriter, r *http.Request) *models.Investor {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return nil
	}
	var investor models.Investor
	if err := database.DB.WithContext(r.Context()).Where("user_id = ?", uid).First(&investor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
			return nil
		}
		logging.Named("users").Error("investor lookup failed", zap.Uint("user_id", uid), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return nil
	}
	return &investor
}

func InfoHandler(w http.ResponseWriter, r *http.Request) {
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}

	var pending int64
	database.DB.WithContext(r.Context()).Model(&models.Deposit{}).
		Where("investor_id = ? AND status = ?", investor.ID, models.DepositPending).
		Count(&pending)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"investor":         investor,
			"requirements":     tiers.RequirementsFor(investor.Level),
			"direct_referrals": len(investor.DirectReferrals),
			"pending_deposits": pending,
		},
	})
}
