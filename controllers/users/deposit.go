package users

import (
	"net/http"
	"strings"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/middleware"
	"inverpulse/models"
	"inverpulse/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DepositRequest struct {
	Amount          float64 `json:"amount" validate:"required"`
	Currency        string  `json:"currency"`
	TransactionHash string  `json:"transaction_hash"`
}

// CreateDepositHandler records a pending deposit. Confirmation, and with it
// the tier update, happens on the admin side.
func CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Amount < models.MinDepositAmount {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Minimum deposit is $100"})
		return
	}

	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	deposit := models.Deposit{
		ID:         utils.NewID(),
		InvestorID: investor.ID,
		Amount:     req.Amount,
		Currency:   currency,
		Status:     models.DepositPending,
	}
	if hash := strings.TrimSpace(req.TransactionHash); hash != "" {
		deposit.TransactionHash = &hash
	}
	if err := database.DB.WithContext(r.Context()).Create(&deposit).Error; err != nil {
		logging.Named("deposits").Error("create deposit failed", zap.String("investor_id", investor.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create deposit"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Deposit submitted, awaiting confirmation",
		Data:    deposit,
	})
}

func ListDepositsHandler(w http.ResponseWriter, r *http.Request) {
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}
	page, limit, offset := utils.Pagination(r)

	q := database.DB.WithContext(r.Context()).Model(&models.Deposit{}).Where("investor_id = ?", investor.ID)
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	var deposits []models.Deposit
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&deposits).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"deposits": deposits,
			"page":     page,
			"limit":    limit,
			"total":    total,
		},
	})
}
