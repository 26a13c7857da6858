package tiers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu       sync.Mutex
	records  map[string]Snapshot
	batches  int
	lookups  int
	failOn   string
	failErr  error
	updates  []Change
	updateAt time.Time
}

func newMemStore(snaps ...Snapshot) *memStore {
	s := &memStore{records: make(map[string]Snapshot)}
	for _, snap := range snaps {
		s.records[snap.ID] = snap
	}
	return s
}

func (s *memStore) put(snap Snapshot) { s.records[snap.ID] = snap }

func (s *memStore) GetInvestor(_ context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.failOn != "" && s.failOn == id {
		return nil, s.failErr
	}
	snap, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("investor %s: %w", id, ErrNotFound)
	}
	return &snap, nil
}

func (s *memStore) GetInvestors(_ context.Context, ids []string) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	var out []Snapshot
	for _, id := range ids {
		if s.failOn != "" && s.failOn == id {
			return nil, s.failErr
		}
		if snap, ok := s.records[id]; ok {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *memStore) UpdateTier(_ context.Context, id string, t Tier, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	s.updates = append(s.updates, Change{InvestorID: id, From: snap.Tier, To: t})
	snap.Tier = t
	snap.UpdatedAt = at
	s.updateAt = at
	s.records[id] = snap
	return nil
}

var errBoom = errors.New("boom")

// validRef returns a referral that satisfies the KYC and deposit condition.
func validRef(id string, t Tier) Snapshot {
	return Snapshot{ID: id, Tier: t, KYCStatus: KYCApproved, TotalDeposit: 150}
}

func ids(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// withReferrals links parent to the given children and stores them all.
func (s *memStore) withReferrals(parent Snapshot, children ...Snapshot) Snapshot {
	for _, c := range children {
		c.ReferredBy = parent.ID
		parent.DirectReferrals = append(parent.DirectReferrals, c.ID)
		s.put(c)
	}
	s.put(parent)
	return parent
}
