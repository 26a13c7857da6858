package models

import (
	"testing"
	"time"

	"inverpulse/tiers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDListColumn(t *testing.T) {
	var l IDList
	require.NoError(t, l.Scan([]byte(`["b","a","b"]`)))
	assert.Equal(t, IDList{"b", "a", "b"}, l, "order and repeats are kept")

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
	require.NoError(t, l.Scan(""))
	assert.Nil(t, l)
	assert.Error(t, l.Scan(`{"not":"a list"}`))
	assert.Error(t, l.Scan(7))

	v, err := IDList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestDocumentsColumn(t *testing.T) {
	var d Documents
	require.NoError(t, d.Scan(`{"document_front":"kyc/a/front.jpg"}`))
	assert.Equal(t, "kyc/a/front.jpg", d["document_front"])

	require.NoError(t, d.Scan([]byte("null")))
	assert.Nil(t, d)

	v, err := Documents(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestInvestorSnapshot(t *testing.T) {
	parent := "p-1"
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := Investor{
		ID:              "i-1",
		Level:           tiers.Gold,
		TotalDeposit:    150,
		KYCStatus:       KYCApproved,
		ReferredBy:      &parent,
		DirectReferrals: IDList{"c-1", "c-2"},
		UpdatedAt:       at,
	}
	snap := inv.Snapshot()
	assert.Equal(t, "p-1", snap.ReferredBy)
	assert.Equal(t, tiers.Gold, snap.Tier)
	assert.True(t, snap.ValidReferral())
	assert.Equal(t, []string{"c-1", "c-2"}, snap.DirectReferrals)

	snap.DirectReferrals[0] = "changed"
	assert.Equal(t, "c-1", inv.DirectReferrals[0])

	inv.ReferredBy = nil
	assert.Empty(t, inv.Snapshot().ReferredBy)
}
