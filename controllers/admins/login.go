package admins

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"inverpulse/database"
	"inverpulse/models"
	"inverpulse/utils"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid JSON body",
		})
		return
	}

	admin, err := models.GetAdminByUsername(database.DB.WithContext(r.Context()), strings.TrimSpace(req.Username))
	if err != nil || !admin.ValidatePassword(req.Password) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}

	token, exp, err := utils.GenerateAccessToken(uint(admin.ID), utils.RoleAdmin, utils.AdminTokenTTL)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token":  token,
			"expire": exp.UTC().Format(time.RFC3339),
			"admin":  admin,
		},
	})
}
