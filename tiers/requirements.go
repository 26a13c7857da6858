package tiers

var (
	weekdays = []string{"mon", "tue", "wed", "thu", "fri"}
	allDays  = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
)

// RuleBundle describes what a tier asks for. SignalsPerDay and DaysActive are
// display attributes and do not take part in evaluation.
type RuleBundle struct {
	Tier                  Tier     `json:"tier"`
	MinDeposit            float64  `json:"min_deposit"`
	SignalsPerDay         int      `json:"signals_per_day"`
	DaysActive            []string `json:"days_active"`
	ReferralsRequired     int      `json:"referrals_required"`
	ReferralsMinDeposit   float64  `json:"referrals_min_deposit,omitempty"`
	ReferralsKYC          bool     `json:"referrals_kyc,omitempty"`
	Referrals5x5          bool     `json:"referrals_5x5,omitempty"`
	ReferralsRequiredTier *Tier    `json:"referrals_required_level,omitempty"`
	ReferralsCount        int      `json:"referrals_count,omitempty"`
	Description           string   `json:"description,omitempty"`
}

const (
	CopperMinDeposit   = 200.0
	IronMinDeposit     = 100.0
	ValidReferralMin   = 100.0
	RequiredReferrals  = 5
	NetworkDepth       = 5
	NetworkMinMembers  = 25
	ReferralTierSample = 5
)

func tierPtr(t Tier) *Tier { return &t }

var requirements = map[Tier]RuleBundle{
	Iron:   {MinDeposit: IronMinDeposit, SignalsPerDay: 2, DaysActive: weekdays},
	Copper: {MinDeposit: CopperMinDeposit, SignalsPerDay: 2, DaysActive: allDays},
	Bronze: {
		SignalsPerDay:       3,
		DaysActive:          allDays,
		ReferralsRequired:   RequiredReferrals,
		ReferralsMinDeposit: ValidReferralMin,
		ReferralsKYC:        true,
	},
	Silver: {
		SignalsPerDay: 4,
		DaysActive:    allDays,
		Referrals5x5:  true,
		Description:   "5x5 network completed",
	},
	Gold:     {SignalsPerDay: 5, DaysActive: allDays, ReferralsRequiredTier: tierPtr(Silver), ReferralsCount: RequiredReferrals},
	Platinum: {SignalsPerDay: 6, DaysActive: allDays, ReferralsRequiredTier: tierPtr(Gold), ReferralsCount: RequiredReferrals},
	Diamond:  {SignalsPerDay: 7, DaysActive: allDays, ReferralsRequiredTier: tierPtr(Platinum), ReferralsCount: RequiredReferrals},
	Sapphire: {SignalsPerDay: 8, DaysActive: allDays, ReferralsRequiredTier: tierPtr(Diamond), ReferralsCount: RequiredReferrals},
	Ruby:     {SignalsPerDay: 10, DaysActive: allDays, ReferralsRequiredTier: tierPtr(Sapphire), ReferralsCount: RequiredReferrals},
}

// RequirementsFor returns a copy of the rule bundle for t. Unknown tiers get
// an empty bundle.
func RequirementsFor(t Tier) RuleBundle {
	b, ok := requirements[t]
	if !ok {
		return RuleBundle{Tier: t}
	}
	b.Tier = t
	b.DaysActive = append([]string(nil), b.DaysActive...)
	if b.ReferralsRequiredTier != nil {
		b.ReferralsRequiredTier = tierPtr(*b.ReferralsRequiredTier)
	}
	return b
}

// Next returns the tier directly above t, and false for Ruby.
func Next(t Tier) (Tier, bool) {
	if !t.Valid() || t == Ruby {
		return t, false
	}
	return t + 1, true
}
