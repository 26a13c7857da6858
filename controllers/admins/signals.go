package admins

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/middleware"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSignalHours = 24

func GetSignals(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.Pagination(r)

	query := database.DB.WithContext(r.Context()).Model(&models.TradingSignal{})
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	var signals []models.TradingSignal
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&signals).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"signals": signals,
			"page":    page,
			"limit":   limit,
			"total":   total,
		},
	})
}

type CreateSignalRequest struct {
	SignalType       string  `json:"signal_type" validate:"required,oneof=buy sell"`
	Asset            string  `json:"asset" validate:"required"`
	EntryPrice       float64 `json:"entry_price" validate:"required"`
	TargetPrice      float64 `json:"target_price" validate:"required"`
	StopLoss         float64 `json:"stop_loss" validate:"required"`
	MinLevelRequired string  `json:"min_level_required"`
	ExpiresInHours   int     `json:"expires_in_hours"`
	Notes            string  `json:"notes"`
}

// checkPrices requires target and stop on opposite sides of the entry, in
// the direction of the trade.
func (req CreateSignalRequest) checkPrices() error {
	if req.EntryPrice <= 0 || req.TargetPrice <= 0 || req.StopLoss <= 0 {
		return errors.New("prices must be positive")
	}
	if req.SignalType == "buy" && !(req.StopLoss < req.EntryPrice && req.EntryPrice < req.TargetPrice) {
		return errors.New("a buy signal needs stop_loss < entry_price < target_price")
	}
	if req.SignalType == "sell" && !(req.TargetPrice < req.EntryPrice && req.EntryPrice < req.StopLoss) {
		return errors.New("a sell signal needs target_price < entry_price < stop_loss")
	}
	return nil
}

func CreateSignal(w http.ResponseWriter, r *http.Request) {
	var req CreateSignalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	req.SignalType = strings.ToLower(req.SignalType)
	if err := req.checkPrices(); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
		return
	}

	minLevel := tiers.Iron
	if req.MinLevelRequired != "" {
		t, err := tiers.ParseTier(req.MinLevelRequired)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid min_level_required"})
			return
		}
		minLevel = t
	}
	hours := req.ExpiresInHours
	if hours <= 0 {
		hours = defaultSignalHours
	}

	now := time.Now()
	signal := models.TradingSignal{
		ID:               utils.NewID(),
		CreatedBy:        adminID(r),
		SignalType:       req.SignalType,
		Asset:            strings.ToUpper(strings.TrimSpace(req.Asset)),
		EntryPrice:       req.EntryPrice,
		TargetPrice:      req.TargetPrice,
		StopLoss:         req.StopLoss,
		MinLevelRequired: minLevel,
		Status:           models.SignalActive,
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Duration(hours) * time.Hour),
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		signal.Notes = &notes
	}
	if err := database.DB.WithContext(r.Context()).Create(&signal).Error; err != nil {
		logging.Named("signals").Error("create signal failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create signal"})
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Signal created", Data: signal})
}

type SignalStatusRequest struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

var signalResults = map[string]bool{"profit": true, "loss": true, "break-even": true}

// UpdateSignalStatus closes or cancels an active signal. Closing requires a
// result.
func UpdateSignalStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req SignalStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	updates := map[string]interface{}{}
	switch req.Status {
	case models.SignalClosed:
		if !signalResults[req.Result] {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "result must be profit, loss or break-even"})
			return
		}
		updates["status"] = models.SignalClosed
		updates["result"] = req.Result
	case models.SignalCancelled:
		updates["status"] = models.SignalCancelled
	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "status must be closed or cancelled"})
		return
	}

	res := database.DB.WithContext(r.Context()).Model(&models.TradingSignal{}).
		Where("signal_id = ? AND status = ?", id, models.SignalActive).
		Updates(updates)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Active signal not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Signal updated", Data: updates})
}
