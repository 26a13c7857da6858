package auth

import (
	"encoding/json"
	"net/http"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"
	"inverpulse/utils"

	"go.uber.org/zap"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// revokeCurrentAccess blacklists the access token presented with the request,
// if any. Parse failures are ignored.
func revokeCurrentAccess(r *http.Request) {
	tokenStr := utils.TokenFromRequest(r)
	if tokenStr == "" {
		return
	}
	claims, err := utils.ValidateAccessToken(tokenStr)
	if err != nil {
		return
	}
	if err := utils.RevokeClaims(claims); err != nil {
		logging.Named("logout").Warn("access token not revoked", zap.Error(err))
	}
}

// LogoutHandler revokes the given refresh token and the current access token,
// and clears the session cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	if req.RefreshToken == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "refresh_token is required"})
		return
	}

	revokeCurrentAccess(r)
	utils.ClearSessionCookie(w)

	// unknown tokens still answer success to avoid token enumeration
	if err := database.DB.WithContext(r.Context()).Model(&models.RefreshToken{}).
		Where("id = ?", req.RefreshToken).Update("revoked", true).Error; err != nil {
		logging.Named("logout").Warn("refresh token revoke failed", zap.Error(err))
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
