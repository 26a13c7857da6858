package admins

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// documentURLTTL bounds how long a presigned KYC link stays usable.
const documentURLTTL = 15 * time.Minute

var kycStatuses = map[string]bool{
	models.KYCPending:  true,
	models.KYCApproved: true,
	models.KYCRejected: true,
}

func GetInvestors(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.Pagination(r)
	q := r.URL.Query()

	query := database.DB.WithContext(r.Context()).Model(&models.Investor{})
	if lv := q.Get("level"); lv != "" {
		t, err := tiers.ParseTier(lv)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown level"})
			return
		}
		query = query.Where("level = ?", t)
	}
	if kyc := q.Get("kyc_status"); kyc != "" {
		if !kycStatuses[kyc] {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown kyc_status"})
			return
		}
		query = query.Where("kyc_status = ?", kyc)
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR name LIKE ? OR referral_code = ?", like, like, search)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	var investors []models.Investor
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&investors).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"investors": investors,
			"page":      page,
			"limit":     limit,
			"total":     total,
		},
	})
}

// GetInvestorDetail returns the investor, their deposit totals and presigned
// links to any KYC documents.
func GetInvestorDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	db := database.DB.WithContext(r.Context())

	var investor models.Investor
	if err := db.Where("investor_id = ?", id).First(&investor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	type depositTotal struct {
		Status string  `json:"status"`
		Count  int64   `json:"count"`
		Amount float64 `json:"amount"`
	}
	var totals []depositTotal
	if err := db.Model(&models.Deposit{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount),0) AS amount").
		Where("investor_id = ?", investor.ID).
		Group("status").
		Scan(&totals).Error; err != nil {
		logging.Named("admin").Error("deposit totals failed", zap.String("investor_id", investor.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	documents := map[string]string{}
	if utils.Objects != nil {
		for field, value := range investor.KYCDocuments {
			if !strings.HasPrefix(value, "kyc/") {
				continue
			}
			url, err := utils.Objects.PresignGet(r.Context(), value, documentURLTTL)
			if err != nil {
				logging.Named("admin").Warn("presign failed", zap.String("key", value), zap.Error(err))
				continue
			}
			documents[field] = url
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"investor":       investor,
			"requirements":   tiers.RequirementsFor(investor.Level),
			"deposits":       totals,
			"document_links": documents,
		},
	})
}

// GetInvestorReferrals lists the investor's direct referrals in stored order
// with whether each one currently counts as valid.
func GetInvestorReferrals(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	graph := tiers.NewGraph(database.NewInvestorStore(database.DB))

	ids, err := graph.DirectReferrals(r.Context(), id)
	if err != nil {
		logging.Named("admin").Error("referral lookup failed", zap.String("investor_id", id), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	if ids == nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
		return
	}
	refs, err := graph.Referrals(r.Context(), ids)
	if err != nil {
		logging.Named("admin").Error("referral lookup failed", zap.String("investor_id", id), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	type referral struct {
		InvestorID   string     `json:"investor_id"`
		Level        tiers.Tier `json:"level"`
		TotalDeposit float64    `json:"total_deposit"`
		KYCStatus    string     `json:"kyc_status"`
		Valid        bool       `json:"valid"`
	}
	list := make([]referral, 0, len(refs))
	valid := 0
	for _, ref := range refs {
		if ref.ValidReferral() {
			valid++
		}
		list = append(list, referral{
			InvestorID:   ref.ID,
			Level:        ref.Tier,
			TotalDeposit: ref.TotalDeposit,
			KYCStatus:    ref.KYCStatus,
			Valid:        ref.ValidReferral(),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"referrals": list,
			"stored":    len(ids),
			"missing":   len(ids) - len(refs),
			"valid":     valid,
		},
	})
}

type LevelOverrideRequest struct {
	Level string `json:"level"`
}

// OverrideLevel writes an admin chosen tier, bypassing evaluation.
func OverrideLevel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req LevelOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	old, updated, err := database.Levels.Override(r.Context(), id, req.Level)
	switch {
	case errors.Is(err, tiers.ErrInvalidTier):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid level"})
		return
	case errors.Is(err, tiers.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
		return
	case err != nil:
		logging.Named("admin").Error("level override failed", zap.String("investor_id", id), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	logging.Named("admin").Info("level overridden",
		zap.Int64("admin_id", adminID(r)),
		zap.String("investor_id", id),
		zap.Stringer("from", old),
		zap.Stringer("to", updated))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Level updated",
		Data:    map[string]interface{}{"old_level": old, "new_level": updated},
	})
}

// EvaluateInvestor re-runs the cascade for the investor and their upline.
func EvaluateInvestor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	changes, err := database.Levels.Propagate(r.Context(), id)
	if errors.Is(err, tiers.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
		return
	}
	if err != nil {
		logging.Named("admin").Error("evaluation failed", zap.String("investor_id", id), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Evaluation failed, level unchanged"})
		return
	}
	if changes == nil {
		changes = []tiers.Change{}
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Evaluation complete",
		Data:    map[string]interface{}{"changes": changes},
	})
}

type KYCReviewRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// ReviewKYC approves or rejects an investor's KYC. Either outcome can change
// whether they count as a valid referral, so the upline is re-evaluated.
func ReviewKYC(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req KYCReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != models.KYCApproved && status != models.KYCRejected {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "status must be approved or rejected"})
		return
	}

	res := database.DB.WithContext(r.Context()).Model(&models.Investor{}).
		Where("investor_id = ?", id).
		Update("kyc_status", status)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Investor not found"})
		return
	}

	log := logging.Named("admin")
	log.Info("kyc reviewed",
		zap.Int64("admin_id", adminID(r)),
		zap.String("investor_id", id),
		zap.String("status", status),
		zap.String("reason", req.Reason))

	changes, err := database.Levels.Propagate(r.Context(), id)
	if err != nil {
		log.Warn("re-evaluation after kyc review failed", zap.String("investor_id", id), zap.Error(err))
	}
	if changes == nil {
		changes = []tiers.Change{}
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "KYC " + status,
		Data: map[string]interface{}{
			"kyc_status":    status,
			"level_updated": err == nil,
			"changes":       changes,
		},
	})
}
