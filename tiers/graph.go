package tiers

import (
	"context"
	"errors"
	"time"
)

const (
	KYCPending  = "pending"
	KYCApproved = "approved"
	KYCRejected = "rejected"
)

// Snapshot is the part of an investor record the evaluator reads.
type Snapshot struct {
	ID              string
	ReferredBy      string
	Tier            Tier
	TotalDeposit    float64
	KYCStatus       string
	DirectReferrals []string
	UpdatedAt       time.Time
}

// ValidReferral reports whether s counts towards the referral rules:
// KYC approved and at least ValidReferralMin deposited.
func (s Snapshot) ValidReferral() bool {
	return s.KYCStatus == KYCApproved && s.TotalDeposit >= ValidReferralMin
}

// Store is the investor record store. GetInvestor returns ErrNotFound for
// unknown ids. GetInvestors silently leaves out ids it cannot find and may
// return records in any order.
type Store interface {
	GetInvestor(ctx context.Context, id string) (*Snapshot, error)
	GetInvestors(ctx context.Context, ids []string) ([]Snapshot, error)
	UpdateTier(ctx context.Context, id string, t Tier, at time.Time) error
}

// Graph resolves referral edges against a Store.
type Graph struct {
	store Store
}

func NewGraph(store Store) *Graph {
	return &Graph{store: store}
}

// Snapshot looks up a single investor. A missing record is reported through
// the bool, not as an error.
func (g *Graph) Snapshot(ctx context.Context, id string) (*Snapshot, bool, error) {
	s, err := g.store.GetInvestor(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// DirectReferrals returns the stored referral list of id, or nil when the
// investor does not exist. An existing investor without referrals gets an
// empty, non-nil list.
func (g *Graph) DirectReferrals(ctx context.Context, id string) ([]string, error) {
	s, ok, err := g.Snapshot(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]string, len(s.DirectReferrals))
	copy(out, s.DirectReferrals)
	return out, nil
}

// Referrals resolves ids in one batch and returns the records in the order of
// ids. Ids without a record are skipped; repeated ids are returned repeatedly.
func (g *Graph) Referrals(ctx context.Context, ids []string) ([]Snapshot, error) {
	byID, err := g.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (g *Graph) resolve(ctx context.Context, ids []string) (map[string]Snapshot, error) {
	byID := make(map[string]Snapshot, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	snaps, err := g.store.GetInvestors(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	for _, s := range snaps {
		byID[s.ID] = s
	}
	return byID, nil
}

// Ancestors walks up the referred-by chain of id, nearest first, for at most
// maxDepth levels. The walk stops at a root, a missing record or a repeat.
func (g *Graph) Ancestors(ctx context.Context, id string, maxDepth int) ([]string, error) {
	cur, ok, err := g.Snapshot(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	seen := map[string]bool{id: true}
	var out []string
	for depth := 0; depth < maxDepth; depth++ {
		parentID := cur.ReferredBy
		if parentID == "" || seen[parentID] {
			break
		}
		seen[parentID] = true
		parent, ok, err := g.Snapshot(ctx, parentID)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, parentID)
		cur = parent
	}
	return out, nil
}

// Network is an adjacency map of the referral forest below a root, loaded
// ahead of traversal.
type Network struct {
	Root  string
	nodes map[string]Snapshot
}

// NewNetwork builds a network from already loaded records.
func NewNetwork(root Snapshot, members ...Snapshot) *Network {
	n := &Network{Root: root.ID, nodes: make(map[string]Snapshot, len(members)+1)}
	n.nodes[root.ID] = root
	for _, m := range members {
		n.nodes[m.ID] = m
	}
	return n
}

func (n *Network) Node(id string) (Snapshot, bool) {
	s, ok := n.nodes[id]
	return s, ok
}

func (n *Network) Size() int { return len(n.nodes) }

// LoadNetwork loads every record needed to count root's network to the given
// depth, one batch query per level. Records below depth-1 are not needed
// because nodes at depth contribute nothing.
func (g *Graph) LoadNetwork(ctx context.Context, root Snapshot, depth int) (*Network, error) {
	net := NewNetwork(root)
	visited := map[string]bool{root.ID: true}
	frontier := unvisited(root.DirectReferrals, visited)

	for level := 1; level < depth && len(frontier) > 0; level++ {
		snaps, err := g.store.GetInvestors(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, id := range frontier {
			visited[id] = true
		}
		var next []string
		for _, s := range snaps {
			net.nodes[s.ID] = s
			next = append(next, s.DirectReferrals...)
		}
		frontier = unvisited(next, visited)
	}
	return net, nil
}

func unvisited(ids []string, visited map[string]bool) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || visited[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func uniqueIDs(ids []string) []string {
	return unvisited(ids, nil)
}
