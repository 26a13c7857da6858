package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inverpulse/models"
	"inverpulse/tiers"

	"gorm.io/gorm"
)

// InvestorStore serves tier snapshots from the investors table.
type InvestorStore struct {
	db *gorm.DB
}

var _ tiers.Store = (*InvestorStore)(nil)

func NewInvestorStore(db *gorm.DB) *InvestorStore {
	return &InvestorStore{db: db}
}

func (s *InvestorStore) GetInvestor(ctx context.Context, id string) (*tiers.Snapshot, error) {
	var inv models.Investor
	err := s.db.WithContext(ctx).Where("investor_id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("investor %s: %w", id, tiers.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load investor %s: %w", id, err)
	}
	snap := inv.Snapshot()
	return &snap, nil
}

// GetInvestors loads a batch with one IN query. Unknown ids are left out.
func (s *InvestorStore) GetInvestors(ctx context.Context, ids []string) ([]tiers.Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Investor
	if err := s.db.WithContext(ctx).Where("investor_id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load %d investors: %w", len(ids), err)
	}
	out := make([]tiers.Snapshot, 0, len(list))
	for i := range list {
		out = append(out, list[i].Snapshot())
	}
	return out, nil
}

func (s *InvestorStore) UpdateTier(ctx context.Context, id string, t tiers.Tier, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Investor{}).
		Where("investor_id = ?", id).
		Updates(map[string]interface{}{"level": t, "updated_at": at})
	if res.Error != nil {
		return fmt.Errorf("update tier of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("investor %s: %w", id, tiers.ErrNotFound)
	}
	return nil
}
