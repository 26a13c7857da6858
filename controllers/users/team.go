package users

import (
	"net/http"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/tiers"
	"inverpulse/utils"

	"go.uber.org/zap"
)

// TeamHandler summarizes the investor's downline per depth, one batch query
// per level.
func TeamHandler(w http.ResponseWriter, r *http.Request) {
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}

	graph := tiers.NewGraph(database.NewInvestorStore(database.DB))
	root := investor.Snapshot()
	// one extra level so the deepest members have records for Valid/Deposit
	net, err := graph.LoadNetwork(r.Context(), root, tiers.NetworkDepth+1)
	if err != nil {
		logging.Named("team").Error("network load failed", zap.String("investor_id", investor.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	levels := tiers.TeamLevels(net, root.ID, tiers.NetworkDepth)
	total := 0
	for _, l := range levels {
		total += l.Members
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"levels":       levels,
			"network_size": total,
			"network_goal": tiers.NetworkMinMembers,
		},
	})
}
