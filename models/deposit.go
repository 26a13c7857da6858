package models

import "time"

const (
	DepositPending   = "pending"
	DepositConfirmed = "confirmed"
	DepositRejected  = "rejected"

	// MinDepositAmount is the smallest deposit an investor may submit.
	MinDepositAmount = 100
)

type Deposit struct {
	ID              string     `gorm:"column:deposit_id;primaryKey;type:char(36)" json:"deposit_id"`
	InvestorID      string     `gorm:"type:char(36);not null;index" json:"investor_id"`
	Investor        *Investor  `gorm:"foreignKey:InvestorID;references:ID" json:"-"`
	Amount          float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency        string     `gorm:"size:8;not null;default:'USD'" json:"currency"`
	Status          string     `gorm:"type:enum('pending','confirmed','rejected');default:'pending'" json:"status"`
	TransactionHash *string    `gorm:"type:varchar(191)" json:"transaction_hash,omitempty"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
}

func (Deposit) TableName() string {
	return "deposits"
}
