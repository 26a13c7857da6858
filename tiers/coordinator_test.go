package tiers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	results []Result
	changes []Change
}

func (o *recordingObserver) Evaluated(res Result, _ time.Duration) { o.results = append(o.results, res) }
func (o *recordingObserver) Changed(c Change)                      { o.changes = append(o.changes, c) }

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestCoordinator(s *memStore, allowDowngrade bool) (*Coordinator, *recordingObserver) {
	obs := &recordingObserver{}
	return NewCoordinator(s, CoordinatorOptions{
		AllowDowngrade: allowDowngrade,
		Observer:       obs,
		Now:            func() time.Time { return fixedNow },
	}), obs
}

func TestOnQualifyingEvent_PersistsChange(t *testing.T) {
	s := newMemStore(Snapshot{ID: "a", TotalDeposit: 300})
	c, obs := newTestCoordinator(s, true)

	old, cur, err := c.OnQualifyingEvent(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, Iron, old)
	assert.Equal(t, Copper, cur)
	assert.Equal(t, Copper, s.records["a"].Tier)
	assert.Equal(t, fixedNow, s.records["a"].UpdatedAt)
	require.Len(t, obs.changes, 1)
	assert.Equal(t, "deposit-copper", obs.changes[0].Rule)
	assert.Equal(t, SourceEvaluation, obs.changes[0].Source)
}

func TestOnQualifyingEvent_NoWriteWhenUnchanged(t *testing.T) {
	s := newMemStore(Snapshot{ID: "a", Tier: Copper, TotalDeposit: 300})
	c, obs := newTestCoordinator(s, true)

	old, cur, err := c.OnQualifyingEvent(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, Copper, old)
	assert.Equal(t, Copper, cur)
	assert.Empty(t, s.updates)
	assert.Len(t, obs.results, 1)
	assert.Empty(t, obs.changes)
}

func TestOnQualifyingEvent_DowngradePolicy(t *testing.T) {
	t.Run("applied by default", func(t *testing.T) {
		s := newMemStore(Snapshot{ID: "a", Tier: Gold})
		c, _ := newTestCoordinator(s, true)
		old, cur, err := c.OnQualifyingEvent(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, Gold, old)
		assert.Equal(t, Iron, cur)
		assert.Equal(t, Iron, s.records["a"].Tier)
	})
	t.Run("suppressed when disabled", func(t *testing.T) {
		s := newMemStore(Snapshot{ID: "a", Tier: Gold})
		c, _ := newTestCoordinator(s, false)
		old, cur, err := c.OnQualifyingEvent(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, Gold, old)
		assert.Equal(t, Gold, cur)
		assert.Empty(t, s.updates)
	})
}

func TestOnQualifyingEvent_Errors(t *testing.T) {
	t.Run("unknown investor", func(t *testing.T) {
		c, _ := newTestCoordinator(newMemStore(), true)
		_, _, err := c.OnQualifyingEvent(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("lookup failure leaves tier unchanged", func(t *testing.T) {
		s, root := rubyStore(0)
		root.Tier = Bronze
		s.put(root)
		s.failOn, s.failErr = "r2", errBoom
		c, _ := newTestCoordinator(s, true)
		old, cur, err := c.OnQualifyingEvent(context.Background(), "root")
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, Bronze, old)
		assert.Equal(t, Bronze, cur)
		assert.Equal(t, Bronze, s.records["root"].Tier)
	})
}

func TestOverride(t *testing.T) {
	s := newMemStore(Snapshot{ID: "a", Tier: Bronze})
	c, obs := newTestCoordinator(s, true)

	old, cur, err := c.Override(context.Background(), "a", "Diamond")
	require.NoError(t, err)
	assert.Equal(t, Bronze, old)
	assert.Equal(t, Diamond, cur)
	assert.Equal(t, Diamond, s.records["a"].Tier)
	require.Len(t, obs.changes, 1)
	assert.Equal(t, SourceOverride, obs.changes[0].Source)
	assert.Empty(t, obs.results, "override must not evaluate")

	_, _, err = c.Override(context.Background(), "a", "emerald")
	assert.ErrorIs(t, err, ErrInvalidTier)
	assert.Equal(t, Diamond, s.records["a"].Tier)

	_, _, err = c.Override(context.Background(), "missing", "gold")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropagate_WalksUpline(t *testing.T) {
	s := newMemStore()
	// grand <- parent <- five children; the last child's deposit confirmation
	// makes the parent Bronze. The grandparent stays Iron.
	var kids []Snapshot
	for _, id := range ids("k", 4) {
		kids = append(kids, validRef(id, Iron))
	}
	kids = append(kids, Snapshot{ID: "k5", KYCStatus: KYCApproved, TotalDeposit: 150})
	parent := s.withReferrals(Snapshot{ID: "parent"}, kids...)
	s.withReferrals(Snapshot{ID: "grand"}, parent)

	c, _ := newTestCoordinator(s, true)
	changes, err := c.Propagate(context.Background(), "k5")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "parent", changes[0].InvestorID)
	assert.Equal(t, Bronze, changes[0].To)
	assert.Equal(t, Bronze, s.records["parent"].Tier)
	assert.Equal(t, Iron, s.records["grand"].Tier)
}

func TestPropagate_ReportsEveryChange(t *testing.T) {
	s := newMemStore()
	a := Snapshot{ID: "a", TotalDeposit: 300}
	s.put(a)
	b := s.withReferrals(Snapshot{ID: "b", TotalDeposit: 300}, a)
	s.withReferrals(Snapshot{ID: "c", TotalDeposit: 300}, b)

	c, _ := newTestCoordinator(s, true)
	changes, err := c.Propagate(context.Background(), "a")
	require.NoError(t, err)
	var got []string
	for _, ch := range changes {
		got = append(got, ch.InvestorID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
