package tiers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds root -> n1 -> n2 -> ... -> n<length>, each node also carrying
// one leaf so every level adds two members.
func chain(s *memStore, length int) Snapshot {
	var below *Snapshot
	for i := length; i >= 1; i-- {
		node := Snapshot{ID: fmt.Sprintf("n%d", i)}
		children := []Snapshot{{ID: fmt.Sprintf("leaf%d", i)}}
		if below != nil {
			children = append([]Snapshot{*below}, children...)
		}
		node = s.withReferrals(node, children...)
		below = &node
	}
	return s.withReferrals(Snapshot{ID: "root"}, *below)
}

func loadAndCount(t *testing.T, s *memStore, root Snapshot, depth int) int {
	t.Helper()
	net, err := NewGraph(s).LoadNetwork(context.Background(), root, depth)
	require.NoError(t, err)
	return CountNetwork(net, root.ID, depth)
}

func TestCountNetwork_Empty(t *testing.T) {
	s := newMemStore(Snapshot{ID: "root"})
	assert.Equal(t, 0, loadAndCount(t, s, Snapshot{ID: "root"}, NetworkDepth))
	assert.Equal(t, 0, CountNetwork(nil, "root", NetworkDepth))
	assert.Equal(t, 0, CountNetwork(NewNetwork(Snapshot{ID: "root"}), "missing", NetworkDepth))
}

func TestCountNetwork_SumsListLengthsPerLevel(t *testing.T) {
	s := newMemStore()
	a := s.withReferrals(Snapshot{ID: "a"}, Snapshot{ID: "a1"}, Snapshot{ID: "a2"})
	b := s.withReferrals(Snapshot{ID: "b"}, Snapshot{ID: "b1"})
	root := s.withReferrals(Snapshot{ID: "root"}, a, b, Snapshot{ID: "c"})

	assert.Equal(t, 3, loadAndCount(t, s, root, 1))
	assert.Equal(t, 6, loadAndCount(t, s, root, 2))
	assert.Equal(t, 6, loadAndCount(t, s, root, NetworkDepth))
}

func TestCountNetwork_CappedAtDepth(t *testing.T) {
	s := newMemStore()
	root := chain(s, 8)
	// root adds 1, n1..n4 add 2 each; n5 and below sit at depth 5 or deeper.
	assert.Equal(t, 9, loadAndCount(t, s, root, NetworkDepth))
	assert.Equal(t, 1, loadAndCount(t, s, root, 1))
	assert.Equal(t, 16, loadAndCount(t, s, root, 20))
}

func TestCountNetwork_StaleReferenceCountedOnce(t *testing.T) {
	s := newMemStore()
	root := s.withReferrals(Snapshot{ID: "root"}, Snapshot{ID: "a"})
	root.DirectReferrals = append(root.DirectReferrals, "ghost")
	s.put(root)
	assert.Equal(t, 2, loadAndCount(t, s, root, NetworkDepth))
}

func TestCountNetwork_CycleTerminates(t *testing.T) {
	s := newMemStore()
	a := Snapshot{ID: "a", DirectReferrals: []string{"b"}}
	b := Snapshot{ID: "b", DirectReferrals: []string{"a"}}
	s.put(a)
	s.put(b)
	assert.Equal(t, 2, loadAndCount(t, s, a, NetworkDepth))
}

func TestLoadNetwork_OneBatchPerLevel(t *testing.T) {
	s := newMemStore()
	root := chain(s, 8)
	net, err := NewGraph(s).LoadNetwork(context.Background(), root, NetworkDepth)
	require.NoError(t, err)
	assert.Equal(t, NetworkDepth-1, s.batches)
	_, ok := net.Node("n4")
	assert.True(t, ok)
	_, ok = net.Node("n5")
	assert.False(t, ok, "depth-5 nodes are not needed for counting")
}

func TestLoadNetwork_PropagatesStoreError(t *testing.T) {
	s := newMemStore()
	root := chain(s, 3)
	s.failOn, s.failErr = "n2", errBoom
	_, err := NewGraph(s).LoadNetwork(context.Background(), root, NetworkDepth)
	assert.ErrorIs(t, err, errBoom)
}

func TestTeamLevels(t *testing.T) {
	s := newMemStore()
	a := s.withReferrals(validRef("a", Iron), validRef("a1", Iron), Snapshot{ID: "a2", TotalDeposit: 40})
	b := s.withReferrals(Snapshot{ID: "b"}, validRef("b1", Copper))
	root := s.withReferrals(Snapshot{ID: "root"}, a, b)
	root.DirectReferrals = append(root.DirectReferrals, "ghost")
	s.put(root)

	net, err := NewGraph(s).LoadNetwork(context.Background(), root, 3)
	require.NoError(t, err)
	levels := TeamLevels(net, root.ID, 2)

	require.Len(t, levels, 2)
	assert.Equal(t, TeamLevel{Depth: 1, Members: 3, Valid: 1, Deposit: 150}, levels[0])
	assert.Equal(t, TeamLevel{Depth: 2, Members: 3, Valid: 2, Deposit: 340}, levels[1])

	total := 0
	for _, l := range levels {
		total += l.Members
	}
	assert.Equal(t, CountNetwork(net, root.ID, 2), total)
}
