package database

import (
	"inverpulse/tiers"

	"gorm.io/gorm"
)

// Levels is the shared tier coordinator, set by InitLevels after Connect.
var Levels *tiers.Coordinator

func InitLevels(db *gorm.DB, opts tiers.CoordinatorOptions) *tiers.Coordinator {
	Levels = tiers.NewCoordinator(NewInvestorStore(db), opts)
	return Levels
}
