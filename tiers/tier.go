package tiers

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tier is an investor membership level. The zero value is Iron.
type Tier int

const (
	Iron Tier = iota
	Copper
	Bronze
	Silver
	Gold
	Platinum
	Diamond
	Sapphire
	Ruby
)

var (
	ErrNotFound    = errors.New("investor not found")
	ErrInvalidTier = errors.New("invalid tier")
)

var tierNames = [...]string{
	Iron:     "iron",
	Copper:   "copper",
	Bronze:   "bronze",
	Silver:   "silver",
	Gold:     "gold",
	Platinum: "platinum",
	Diamond:  "diamond",
	Sapphire: "sapphire",
	Ruby:     "ruby",
}

// All returns every tier in canonical order, lowest first.
func All() []Tier {
	out := make([]Tier, 0, len(tierNames))
	for t := Iron; t <= Ruby; t++ {
		out = append(out, t)
	}
	return out
}

func (t Tier) Valid() bool { return t >= Iron && t <= Ruby }

// Rank is the position of the tier in canonical order, starting at 0.
func (t Tier) Rank() int { return int(t) }

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// CanView reports whether a holder of t may see a signal tagged with required.
func (t Tier) CanView(required Tier) bool {
	return required.Valid() && required <= t
}

// VisibleTiers lists the tiers whose signals a holder of t may see.
func VisibleTiers(t Tier) []Tier {
	if !t.Valid() {
		return nil
	}
	out := make([]Tier, 0, t.Rank()+1)
	for _, v := range All() {
		if t.CanView(v) {
			out = append(out, v)
		}
	}
	return out
}

// ParseTier accepts a tier name, case-insensitive. The Spanish names used by
// the first version of the platform are accepted as aliases.
func ParseTier(s string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == key {
			return Tier(i), nil
		}
	}
	if t, ok := legacyNames[key]; ok {
		return t, nil
	}
	return Iron, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

var legacyNames = map[string]Tier{
	"hierro":   Iron,
	"cobre":    Copper,
	"bronce":   Bronze,
	"plata":    Silver,
	"oro":      Gold,
	"platino":  Platinum,
	"diamante": Diamond,
	"zafiro":   Sapphire,
	"rubi":     Ruby,
}

func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, int(t))
	}
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value stores the tier as its lowercase name.
func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, int(t))
	}
	return t.String(), nil
}

func (t *Tier) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = Iron
		return nil
	case string:
		p, err := ParseTier(v)
		if err != nil {
			return err
		}
		*t = p
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("tiers: cannot scan %T into Tier", src)
	}
}
