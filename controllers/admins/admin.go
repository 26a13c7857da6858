package admins

import (
	"net/http"

	"inverpulse/database"
	"inverpulse/models"
	"inverpulse/utils"
)

// adminID returns the id the admin middleware stored in the context.
func adminID(r *http.Request) int64 {
	id, _ := utils.GetUserID(r)
	return int64(id)
}

// GET /v1/admin/profile
func GetAdminProfile(w http.ResponseWriter, r *http.Request) {
	var admin models.Admin
	if err := database.DB.WithContext(r.Context()).First(&admin, adminID(r)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Admin not found",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    admin,
	})
}
