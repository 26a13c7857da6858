package models

import (
	"time"

	"inverpulse/tiers"
)

const (
	KYCPending  = tiers.KYCPending
	KYCApproved = tiers.KYCApproved
	KYCRejected = tiers.KYCRejected
)

type Investor struct {
	ID              string     `gorm:"column:investor_id;primaryKey;type:char(36)" json:"investor_id"`
	UserID          uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Email           string     `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Level           tiers.Tier `gorm:"column:level;type:varchar(16);not null;default:'iron'" json:"level"`
	TotalDeposit    float64    `gorm:"column:total_deposit;type:decimal(15,2);default:0" json:"total_deposit"`
	TotalProfit     float64    `gorm:"column:total_profit;type:decimal(15,2);default:0" json:"total_profit"`
	KYCStatus       string     `gorm:"column:kyc_status;type:enum('pending','approved','rejected');default:'pending'" json:"kyc_status"`
	KYCDocuments    Documents  `gorm:"column:kyc_documents;type:json" json:"kyc_documents,omitempty"`
	ReferralCode    string     `gorm:"size:20;uniqueIndex;not null" json:"referral_code"`
	ReferredBy      *string    `gorm:"column:referred_by;type:char(36);index" json:"referred_by"`
	DirectReferrals IDList     `gorm:"column:direct_referrals;type:json" json:"direct_referrals"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Investor) TableName() string {
	return "investors"
}

// Snapshot returns the fields the tier evaluator reads.
func (i *Investor) Snapshot() tiers.Snapshot {
	var ref string
	if i.ReferredBy != nil {
		ref = *i.ReferredBy
	}
	return tiers.Snapshot{
		ID:              i.ID,
		ReferredBy:      ref,
		Tier:            i.Level,
		TotalDeposit:    i.TotalDeposit,
		KYCStatus:       i.KYCStatus,
		DirectReferrals: append([]string(nil), i.DirectReferrals...),
		UpdatedAt:       i.UpdatedAt,
	}
}
