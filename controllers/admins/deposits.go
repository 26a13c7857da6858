package admins

import (
	"context"
	"errors"
	"net/http"
	"time"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errDepositNotFound   = errors.New("deposit not found")
	errDepositNotPending = errors.New("deposit is not pending")
)

func GetDeposits(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.Pagination(r)
	q := r.URL.Query()

	query := database.DB.WithContext(r.Context()).Model(&models.Deposit{})
	if status := q.Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if investorID := q.Get("investor_id"); investorID != "" {
		query = query.Where("investor_id = ?", investorID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	var deposits []models.Deposit
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&deposits).Error; err != nil {
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

// settleDeposit moves a pending deposit to status inside one transaction,
// holding a row lock on the deposit. Confirming also credits the investor's
// total_deposit.
func settleDeposit(ctx context.Context, db *gorm.DB, depositID, status string, reviewer int64) (*models.Deposit, error) {
	var dep models.Deposit
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deposit_id = ?", depositID).First(&dep).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errDepositNotFound
		}
		if err != nil {
			return err
		}
		if dep.Status != models.DepositPending {
			return errDepositNotPending
		}

		now := time.Now()
		updates := map[string]interface{}{"status": status, "reviewed_by": reviewer}
		if status == models.DepositConfirmed {
			updates["confirmed_at"] = now
		}
		if err := tx.Model(&models.Deposit{}).Where("deposit_id = ?", dep.ID).Updates(updates).Error; err != nil {
			return err
		}
		dep.Status = status
		dep.ReviewedBy = &reviewer
		if status != models.DepositConfirmed {
			return nil
		}
		dep.ConfirmedAt = &now

		res := tx.Model(&models.Investor{}).Where("investor_id = ?", dep.InvestorID).
			Updates(map[string]interface{}{
				"total_deposit": gorm.Expr("total_deposit + ?", dep.Amount),
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tiers.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func writeSettleError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, errDepositNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Deposit not found"})
	case errors.Is(err, errDepositNotPending):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Deposit has already been processed"})
	case errors.Is(err, tiers.ErrNotFound):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.APIResponse{Success: false, Message: "Deposit investor not found"})
	default:
		logging.Named("deposits").Error("settle failed", zap.String("deposit_id", id), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
	}
}

// ConfirmDeposit credits the deposit and re-evaluates the investor and their
// upline. The confirmation stands even when the evaluation fails.
func ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	dep, err := settleDeposit(r.Context(), database.DB, id, models.DepositConfirmed, adminID(r))
	if err != nil {
		writeSettleError(w, id, err)
		return
	}

	log := logging.Named("deposits")
	log.Info("deposit confirmed",
		zap.String("deposit_id", dep.ID),
		zap.String("investor_id", dep.InvestorID),
		zap.Float64("amount", dep.Amount),
		zap.Int64("admin_id", adminID(r)))

	changes, err := database.Levels.Propagate(r.Context(), dep.InvestorID)
	if err != nil {
		log.Warn("level evaluation failed after confirmation", zap.String("investor_id", dep.InvestorID), zap.Error(err))
	}
	if changes == nil {
		changes = []tiers.Change{}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Deposit confirmed",
		Data: map[string]interface{}{
			"deposit":       dep,
			"level_updated": err == nil,
			"changes":       changes,
		},
	})
}

func RejectDeposit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	dep, err := settleDeposit(r.Context(), database.DB, id, models.DepositRejected, adminID(r))
	if err != nil {
		writeSettleError(w, id, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Deposit rejected",
		Data:    dep,
	})
}
