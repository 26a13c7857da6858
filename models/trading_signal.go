package models

import (
	"time"

	"inverpulse/tiers"
)

const (
	SignalActive    = "active"
	SignalClosed    = "closed"
	SignalCancelled = "cancelled"
)

type TradingSignal struct {
	ID               string     `gorm:"column:signal_id;primaryKey;type:char(36)" json:"signal_id"`
	CreatedBy        int64      `gorm:"not null" json:"created_by"`
	SignalType       string     `gorm:"type:enum('buy','sell');not null" json:"signal_type"`
	Asset            string     `gorm:"size:32;not null" json:"asset"`
	EntryPrice       float64    `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	TargetPrice      float64    `gorm:"type:decimal(20,8);not null" json:"target_price"`
	StopLoss         float64    `gorm:"type:decimal(20,8);not null" json:"stop_loss"`
	MinLevelRequired tiers.Tier `gorm:"type:varchar(16);not null;default:'iron';index" json:"min_level_required"`
	Status           string     `gorm:"type:enum('active','closed','cancelled');default:'active';index" json:"status"`
	Result           *string    `gorm:"type:enum('profit','loss','break-even')" json:"result,omitempty"`
	Notes            *string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `gorm:"not null;index" json:"expires_at"`
}

func (TradingSignal) TableName() string {
	return "trading_signals"
}
