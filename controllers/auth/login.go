package auth

import (
	"errors"
	"net/http"
	"strings"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/middleware"
	"inverpulse/models"
	"inverpulse/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IsApp    *bool  `json:"is_app,omitempty"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := database.DB.WithContext(r.Context())

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid email or password"})
			return
		}
		logging.Named("login").Error("user lookup failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	switch strings.ToLower(user.Status) {
	case "active":
	case "suspend":
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Your account has been suspended, please contact support"})
		return
	default:
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Your account is inactive, please contact support"})
		return
	}

	if locked, retry := middleware.IsAccountLocked(r.Context(), user.ID); locked {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Too many login attempts, please try again later",
			Data:    map[string]interface{}{"retry_after_seconds": int(retry.Seconds())},
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		middleware.RecordFailedLogin(r.Context(), user.ID)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid email or password"})
		return
	}
	middleware.ResetFailedLogin(r.Context(), user.ID)

	data, err := issueSession(w, user.ID, req.IsApp)
	if err != nil {
		logging.Named("login").Error("token issue failed", zap.Uint("user_id", user.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Login failed"})
		return
	}

	var investor models.Investor
	if err := db.Where("user_id = ?", user.ID).First(&investor).Error; err == nil {
		data["investor"] = investor
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data:    data,
	})
}
