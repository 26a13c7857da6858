package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"inverpulse/tiers"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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

var investorColumns = []string{
	"investor_id", "user_id", "email", "name", "level", "total_deposit",
	"kyc_status", "referred_by", "direct_referrals",
}

func TestInvestorStore_GetInvestor(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewInvestorStore(db)

	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE investor_id = \\?").
		WillReturnRows(sqlmock.NewRows(investorColumns).
			AddRow("a", 1, "a@x.io", "A", "gold", 250.0, "approved", "p", `["c1","c2"]`))

	snap, err := store.GetInvestor(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, tiers.Gold, snap.Tier)
	assert.Equal(t, 250.0, snap.TotalDeposit)
	assert.Equal(t, "p", snap.ReferredBy)
	assert.Equal(t, []string{"c1", "c2"}, snap.DirectReferrals)
	assert.True(t, snap.ValidReferral())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestorStore_GetInvestorNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `investors`").
		WillReturnRows(sqlmock.NewRows(investorColumns))

	_, err := NewInvestorStore(db).GetInvestor(context.Background(), "missing")
	assert.ErrorIs(t, err, tiers.ErrNotFound)
}

func TestInvestorStore_GetInvestorDBError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT \\* FROM `investors`").WillReturnError(boom)

	_, err := NewInvestorStore(db).GetInvestor(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, tiers.ErrNotFound)
}

func TestInvestorStore_GetInvestorsBatch(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE investor_id IN \\(\\?,\\?,\\?\\)").
		WithArgs("a", "b", "ghost").
		WillReturnRows(sqlmock.NewRows(investorColumns).
			AddRow("b", 2, "b@x.io", "B", "iron", 0.0, "pending", "a", nil).
			AddRow("a", 1, "a@x.io", "A", "bronze", 100.0, "approved", nil, `["b"]`))

	snaps, err := NewInvestorStore(db).GetInvestors(context.Background(), []string{"a", "b", "ghost"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "b", snaps[0].ID)
	assert.Empty(t, snaps[0].DirectReferrals)
	assert.Equal(t, tiers.Bronze, snaps[1].Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestorStore_GetInvestorsEmptySkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	snaps, err := NewInvestorStore(db).GetInvestors(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestorStore_UpdateTier(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `investors` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewInvestorStore(db).UpdateTier(context.Background(), "a", tiers.Platinum, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestorStore_UpdateTierUnknownInvestor(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `investors` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewInvestorStore(db).UpdateTier(context.Background(), "ghost", tiers.Gold, time.Now())
	assert.ErrorIs(t, err, tiers.ErrNotFound)
}

func TestCoordinatorOverGormStore(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `investors` WHERE investor_id = \\?").
		WillReturnRows(sqlmock.NewRows(investorColumns).
			AddRow("a", 1, "a@x.io", "A", "iron", 300.0, "pending", nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `investors` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := InitLevels(db, tiers.CoordinatorOptions{AllowDowngrade: true})
	old, cur, err := c.OnQualifyingEvent(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, tiers.Iron, old)
	assert.Equal(t, tiers.Copper, cur)
	assert.Same(t, c, Levels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireSignals(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `trading_signals` SET `status`=\\? WHERE status = \\? AND expires_at <= \\?").
		WithArgs("closed", "active", now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := ExpireSignals(context.Background(), db, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
