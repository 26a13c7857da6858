package users

import (
	"net/http"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/tiers"
	"inverpulse/utils"

	"go.uber.org/zap"
)

// LevelHandler returns the stored tier, its rule bundle, the next tier's
// bundle and a dry-run evaluation. The dry run never writes; tiers change
// only through qualifying events.
func LevelHandler(w http.ResponseWriter, r *http.Request) {
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}
	if database.Levels == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: "Level service unavailable"})
		return
	}
	snap := investor.Snapshot()
	ctx := r.Context()
	log := logging.Named("level")

	graph := tiers.NewGraph(database.NewInvestorStore(database.DB))
	refs, err := graph.Referrals(ctx, snap.DirectReferrals)
	if err != nil {
		log.Error("referral lookup failed", zap.String("investor_id", snap.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}
	valid := 0
	for _, ref := range refs {
		if ref.ValidReferral() {
			valid++
		}
	}

	preview, err := database.Levels.Evaluator().Explain(ctx, snap)
	if err != nil {
		log.Error("level preview failed", zap.String("investor_id", snap.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	data := map[string]interface{}{
		"level":           snap.Tier,
		"rank":            snap.Tier.Rank(),
		"requirements":    tiers.RequirementsFor(snap.Tier),
		"total_deposit":   snap.TotalDeposit,
		"kyc_status":      snap.KYCStatus,
		"referrals":       len(snap.DirectReferrals),
		"valid_referrals": valid,
		"evaluated":       preview,
	}
	if next, ok := tiers.Next(snap.Tier); ok {
		data["next_level"] = tiers.RequirementsFor(next)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
