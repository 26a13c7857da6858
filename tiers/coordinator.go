package tiers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	SourceEvaluation = "evaluation"
	SourceOverride   = "override"
)

// Change records a persisted tier transition.
type Change struct {
	InvestorID string `json:"investor_id"`
	From       Tier   `json:"from"`
	To         Tier   `json:"to"`
	Source     string `json:"source"`
	Rule       string `json:"rule,omitempty"`
}

// Observer receives evaluation and change notifications, e.g. for metrics.
type Observer interface {
	Evaluated(res Result, elapsed time.Duration)
	Changed(c Change)
}

type CoordinatorOptions struct {
	// AllowDowngrade applies a cascade result lower than the stored tier.
	// Enabled by default through config.
	AllowDowngrade bool
	Logger         *zap.Logger
	Observer       Observer
	Now            func() time.Time
}

// Coordinator is the only writer of an investor's tier.
type Coordinator struct {
	store     Store
	graph     *Graph
	evaluator *Evaluator
	opts      CoordinatorOptions
	log       *zap.Logger
}

func NewCoordinator(store Store, opts CoordinatorOptions) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		graph:     NewGraph(store),
		evaluator: NewEvaluator(store),
		opts:      opts,
		log:       log.Named("tiers"),
	}
}

func (c *Coordinator) Evaluator() *Evaluator { return c.evaluator }

// OnQualifyingEvent re-evaluates an investor and stores the result when it
// differs from the stored tier. No lock is held between read and write.
func (c *Coordinator) OnQualifyingEvent(ctx context.Context, investorID string) (Tier, Tier, error) {
	ch, old, err := c.apply(ctx, investorID)
	if err != nil {
		return old, old, err
	}
	if ch == nil {
		return old, old, nil
	}
	return ch.From, ch.To, nil
}

func (c *Coordinator) apply(ctx context.Context, investorID string) (*Change, Tier, error) {
	snap, err := c.store.GetInvestor(ctx, investorID)
	if err != nil {
		return nil, Iron, fmt.Errorf("load investor %s: %w", investorID, err)
	}
	old := snap.Tier

	start := time.Now()
	res, err := c.evaluator.Explain(ctx, *snap)
	if err != nil {
		c.log.Warn("evaluation aborted, tier left unchanged",
			zap.String("investor_id", investorID), zap.Error(err))
		return nil, old, fmt.Errorf("evaluate investor %s: %w", investorID, err)
	}
	if c.opts.Observer != nil {
		c.opts.Observer.Evaluated(res, time.Since(start))
	}

	if res.Tier == old {
		return nil, old, nil
	}
	if res.Tier < old && !c.opts.AllowDowngrade {
		c.log.Info("downgrade suppressed",
			zap.String("investor_id", investorID),
			zap.Stringer("stored", old),
			zap.Stringer("computed", res.Tier),
			zap.String("rule", res.Rule))
		return nil, old, nil
	}

	if err := c.store.UpdateTier(ctx, investorID, res.Tier, c.opts.Now()); err != nil {
		return nil, old, fmt.Errorf("store tier for %s: %w", investorID, err)
	}
	ch := &Change{InvestorID: investorID, From: old, To: res.Tier, Source: SourceEvaluation, Rule: res.Rule}
	c.changed(*ch)
	return ch, old, nil
}

// Override writes a caller-supplied tier without evaluating. The stored tier
// is untouched when raw is not a recognized tier.
func (c *Coordinator) Override(ctx context.Context, investorID, raw string) (Tier, Tier, error) {
	t, err := ParseTier(raw)
	if err != nil {
		return Iron, Iron, err
	}
	snap, err := c.store.GetInvestor(ctx, investorID)
	if err != nil {
		return Iron, Iron, fmt.Errorf("load investor %s: %w", investorID, err)
	}
	old := snap.Tier
	if old == t {
		return old, t, nil
	}
	if err := c.store.UpdateTier(ctx, investorID, t, c.opts.Now()); err != nil {
		return old, old, fmt.Errorf("store tier for %s: %w", investorID, err)
	}
	c.changed(Change{InvestorID: investorID, From: old, To: t, Source: SourceOverride})
	return old, t, nil
}

// Propagate re-evaluates the investor and then its upline, nearest first, up
// to NetworkDepth levels. Failures on ancestors are logged and skipped.
func (c *Coordinator) Propagate(ctx context.Context, investorID string) ([]Change, error) {
	var changes []Change
	ch, _, err := c.apply(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if ch != nil {
		changes = append(changes, *ch)
	}

	upline, err := c.graph.Ancestors(ctx, investorID, NetworkDepth)
	if err != nil {
		c.log.Warn("upline lookup failed", zap.String("investor_id", investorID), zap.Error(err))
	}
	for _, id := range upline {
		ch, _, err := c.apply(ctx, id)
		if err != nil {
			c.log.Warn("upline re-evaluation failed", zap.String("investor_id", id), zap.Error(err))
			continue
		}
		if ch != nil {
			changes = append(changes, *ch)
		}
	}
	return changes, nil
}

func (c *Coordinator) changed(ch Change) {
	c.log.Info("tier changed",
		zap.String("investor_id", ch.InvestorID),
		zap.Stringer("from", ch.From),
		zap.Stringer("to", ch.To),
		zap.String("source", ch.Source),
		zap.String("rule", ch.Rule))
	if c.opts.Observer != nil {
		c.opts.Observer.Changed(ch)
	}
}
