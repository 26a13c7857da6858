package controllers

import (
	"net/http"

	"inverpulse/tiers"
	"inverpulse/utils"

	"github.com/gorilla/mux"
)

// GET /v1/levels
func LevelsHandler(w http.ResponseWriter, r *http.Request) {
	all := tiers.All()
	bundles := make([]tiers.RuleBundle, 0, len(all))
	for _, t := range all {
		bundles = append(bundles, tiers.RequirementsFor(t))
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: bundles})
}

// GET /v1/levels/{tier}
func LevelHandler(w http.ResponseWriter, r *http.Request) {
	t, err := tiers.ParseTier(mux.Vars(r)["tier"])
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Unknown level"})
		return
	}
	data := map[string]interface{}{
		"requirements": tiers.RequirementsFor(t),
		"rank":         t.Rank(),
		"visible":      tiers.VisibleTiers(t),
	}
	if next, ok := tiers.Next(t); ok {
		data["next_level"] = next
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
