package tiers

// CountNetwork counts root's descendants within depth levels. Every node
// visited above the depth bound adds the length of its stored referral list,
// so a referral id without a record is still counted once by its parent but
// adds nothing below it. The visited set keeps the walk finite if the forest
// invariant is ever broken.
func CountNetwork(net *Network, rootID string, depth int) int {
	if net == nil || depth <= 0 {
		return 0
	}
	type item struct {
		id    string
		depth int
	}
	queue := []item{{id: rootID}}
	visited := map[string]bool{rootID: true}
	total := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= depth {
			continue
		}
		node, ok := net.Node(cur.id)
		if !ok {
			continue
		}
		total += len(node.DirectReferrals)
		for _, child := range node.DirectReferrals {
			if visited[child] {
				continue
			}
			visited[child] = true
			queue = append(queue, item{id: child, depth: cur.depth + 1})
		}
	}
	return total
}

// TeamLevel summarizes one depth of an investor's downline.
type TeamLevel struct {
	Depth   int     `json:"depth"`
	Members int     `json:"members"`
	Valid   int     `json:"valid"`
	Deposit float64 `json:"total_deposit"`
}

// TeamLevels walks the network like CountNetwork and reports the members
// found at each depth from 1 to depth. Members follows the stored list
// lengths; Valid and Deposit only cover members with a loaded record, so the
// network must be loaded one level deeper than depth for the last level.
func TeamLevels(net *Network, rootID string, depth int) []TeamLevel {
	if depth <= 0 {
		return nil
	}
	out := make([]TeamLevel, depth)
	for i := range out {
		out[i].Depth = i + 1
	}
	if net == nil {
		return out
	}
	visited := map[string]bool{rootID: true}
	frontier := []string{rootID}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			node, ok := net.Node(id)
			if !ok {
				continue
			}
			out[d].Members += len(node.DirectReferrals)
			for _, child := range node.DirectReferrals {
				if visited[child] {
					continue
				}
				visited[child] = true
				if s, ok := net.Node(child); ok {
					out[d].Deposit += s.TotalDeposit
					if s.ValidReferral() {
						out[d].Valid++
					}
				}
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}
