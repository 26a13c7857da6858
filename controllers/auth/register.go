package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/middleware"
	"inverpulse/models"
	"inverpulse/tiers"
	"inverpulse/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,nameok"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,pwdmin"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	ReferralCode         string `json:"referral_code"`
	IsApp                *bool  `json:"is_app,omitempty"`
}

var (
	errEmailTaken      = errors.New("email already registered")
	errInvalidReferral = errors.New("invalid referral code")
)

// RegisterHandler creates the login user and its investor record. A referral
// code links the new investor under the code's owner.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	log := logging.Named("register")
	user, investor, err := registerInvestor(r.Context(), database.DB, req, string(hashed))
	switch {
	case errors.Is(err, errEmailTaken):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Email is already registered"})
		return
	case errors.Is(err, errInvalidReferral):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid referral code"})
		return
	case err != nil:
		log.Error("registration failed", zap.String("email", req.Email), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Registration failed, please try again"})
		return
	}

	// the new referral changes the referrer's counts and network size
	if investor.ReferredBy != nil && database.Levels != nil {
		if _, err := database.Levels.Propagate(r.Context(), *investor.ReferredBy); err != nil {
			log.Warn("referrer re-evaluation failed", zap.String("investor_id", *investor.ReferredBy), zap.Error(err))
		}
	}

	data, err := issueSession(w, user.ID, req.IsApp)
	if err != nil {
		log.Error("token issue failed", zap.Uint("user_id", user.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create session"})
		return
	}
	data["investor"] = investor

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registration successful, welcome!",
		Data:    data,
	})
}

// registerInvestor runs the whole registration in one transaction. The
// referrer row is locked so concurrent sign-ups under the same code do not
// lose list entries.
func registerInvestor(ctx context.Context, db *gorm.DB, req RegisterRequest, hashedPassword string) (*models.User, *models.Investor, error) {
	var user models.User
	var investor models.Investor

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		var referrer *models.Investor
		if req.ReferralCode != "" {
			var ref models.Investor
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("referral_code = ?", req.ReferralCode).First(&ref).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidReferral
			}
			if err != nil {
				return err
			}
			referrer = &ref
		}

		code, err := utils.GenerateUniqueReferralCode(tx, 8)
		if err != nil {
			return err
		}

		user = models.User{
			Email:    req.Email,
			Name:     req.Name,
			Password: hashedPassword,
			Role:     utils.RoleUser,
			Status:   "Active",
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		investor = models.Investor{
			ID:              utils.NewID(),
			UserID:          user.ID,
			Email:           user.Email,
			Name:            user.Name,
			Level:           tiers.Iron,
			KYCStatus:       models.KYCPending,
			ReferralCode:    code,
			DirectReferrals: models.IDList{},
		}
		if referrer != nil {
			investor.ReferredBy = &referrer.ID
		}
		if err := tx.Create(&investor).Error; err != nil {
			return err
		}

		if referrer != nil {
			list := append(models.IDList{}, referrer.DirectReferrals...)
			list = append(list, investor.ID)
			if err := tx.Model(&models.Investor{}).Where("investor_id = ?", referrer.ID).
				Update("direct_referrals", list).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, &investor, nil
}
