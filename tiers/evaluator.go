package tiers

import (
	"context"
	"fmt"
)

// Rule is one step of the eligibility cascade. Match may load referral data
// through the evaluation it receives.
type Rule struct {
	Name  string
	Tier  Tier
	Match func(ctx context.Context, ev *Evaluation) (bool, error)
}

// Result is the outcome of an evaluation and the rule that produced it.
type Result struct {
	Tier Tier   `json:"tier"`
	Rule string `json:"rule"`
}

// Evaluator runs the eligibility cascade. It never writes.
type Evaluator struct {
	graph *Graph
	rules []Rule
}

func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{graph: NewGraph(store), rules: defaultRules()}
}

// Rules returns the cascade in evaluation order.
func (e *Evaluator) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

func (e *Evaluator) Evaluate(ctx context.Context, snap Snapshot) (Tier, error) {
	res, err := e.Explain(ctx, snap)
	return res.Tier, err
}

// Explain evaluates snap and reports which rule matched first.
func (e *Evaluator) Explain(ctx context.Context, snap Snapshot) (Result, error) {
	ev := &Evaluation{Investor: snap, graph: e.graph}
	for _, r := range e.rules {
		ok, err := r.Match(ctx, ev)
		if err != nil {
			return Result{Tier: snap.Tier}, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if ok {
			return Result{Tier: r.Tier, Rule: r.Name}, nil
		}
	}
	return Result{Tier: Iron, Rule: "none"}, nil
}

// Evaluation holds the investor under evaluation and the referral data loaded
// for it so far. Each piece is loaded at most once.
type Evaluation struct {
	Investor Snapshot
	graph    *Graph

	refsLoaded bool
	refs       map[string]Snapshot

	networkLoaded bool
	network       int
}

func (ev *Evaluation) referrals(ctx context.Context) (map[string]Snapshot, error) {
	if ev.refsLoaded {
		return ev.refs, nil
	}
	refs, err := ev.graph.resolve(ctx, ev.Investor.DirectReferrals)
	if err != nil {
		return nil, err
	}
	ev.refs, ev.refsLoaded = refs, true
	return refs, nil
}

// ValidReferrals counts direct referrals with approved KYC and enough deposit.
func (ev *Evaluation) ValidReferrals(ctx context.Context) (int, error) {
	refs, err := ev.referrals(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ev.Investor.DirectReferrals {
		if s, ok := refs[id]; ok && s.ValidReferral() {
			n++
		}
	}
	return n, nil
}

// SampleTiers returns the tiers of the first ReferralTierSample direct
// referrals in stored order, valid or not. Referrals without a record are
// skipped, so fewer tiers than the sample size may come back.
func (ev *Evaluation) SampleTiers(ctx context.Context) ([]Tier, error) {
	refs, err := ev.referrals(ctx)
	if err != nil {
		return nil, err
	}
	ids := ev.Investor.DirectReferrals
	if len(ids) > ReferralTierSample {
		ids = ids[:ReferralTierSample]
	}
	out := make([]Tier, 0, len(ids))
	for _, id := range ids {
		if s, ok := refs[id]; ok {
			out = append(out, s.Tier)
		}
	}
	return out, nil
}

// NetworkSize counts the investor's network to NetworkDepth levels.
func (ev *Evaluation) NetworkSize(ctx context.Context) (int, error) {
	if ev.networkLoaded {
		return ev.network, nil
	}
	net, err := ev.graph.LoadNetwork(ctx, ev.Investor, NetworkDepth)
	if err != nil {
		return 0, err
	}
	ev.network = CountNetwork(net, ev.Investor.ID, NetworkDepth)
	ev.networkLoaded = true
	return ev.network, nil
}

func defaultRules() []Rule {
	rules := []Rule{
		{Name: "deposit-copper", Tier: Copper, Match: depositAtLeast(CopperMinDeposit)},
		{Name: "deposit-iron", Tier: Iron, Match: depositAtLeast(IronMinDeposit)},
		{Name: "insufficient-referrals", Tier: Iron, Match: insufficientReferrals},
	}
	// Highest tier first: the first satisfied threshold wins.
	for t := Ruby; t >= Gold; t-- {
		required := *requirements[t].ReferralsRequiredTier
		rules = append(rules, Rule{
			Name:  "referrals-" + required.String(),
			Tier:  t,
			Match: sampleAt(required, requirements[t].ReferralsCount),
		})
	}
	return append(rules,
		Rule{Name: "network-5x5", Tier: Silver, Match: networkAtLeast(NetworkMinMembers)},
		Rule{Name: "valid-referrals", Tier: Bronze, Match: always},
		Rule{Name: "fallback", Tier: Iron, Match: always},
	)
}

func depositAtLeast(min float64) func(context.Context, *Evaluation) (bool, error) {
	return func(_ context.Context, ev *Evaluation) (bool, error) {
		return ev.Investor.TotalDeposit >= min, nil
	}
}

func insufficientReferrals(ctx context.Context, ev *Evaluation) (bool, error) {
	if len(ev.Investor.DirectReferrals) < RequiredReferrals {
		return true, nil
	}
	n, err := ev.ValidReferrals(ctx)
	if err != nil {
		return false, err
	}
	return n < RequiredReferrals, nil
}

func sampleAt(required Tier, count int) func(context.Context, *Evaluation) (bool, error) {
	return func(ctx context.Context, ev *Evaluation) (bool, error) {
		sample, err := ev.SampleTiers(ctx)
		if err != nil {
			return false, err
		}
		n := 0
		for _, t := range sample {
			if t == required {
				n++
			}
		}
		return n >= count, nil
	}
}

func networkAtLeast(min int) func(context.Context, *Evaluation) (bool, error) {
	return func(ctx context.Context, ev *Evaluation) (bool, error) {
		n, err := ev.NetworkSize(ctx)
		if err != nil {
			return false, err
		}
		return n >= min, nil
	}
}

func always(context.Context, *Evaluation) (bool, error) { return true, nil }
