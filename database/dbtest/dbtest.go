// Package dbtest opens gorm on top of sqlmock for handler and store tests.
package dbtest

import (
	"testing"

	"inverpulse/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMockDB returns a gorm handle backed by sqlmock.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

// UseMockDB installs a mock as database.DB for the duration of the test.
func UseMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock := NewMockDB(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return mock
}

// InvestorColumns is the column set investor row fixtures use.
var InvestorColumns = []string{
	"investor_id", "user_id", "email", "name", "level", "total_deposit",
	"kyc_status", "referral_code", "referred_by", "direct_referrals",
}
