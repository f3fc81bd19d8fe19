package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownUnit = errors.New("unknown unit type")

// UnitType is the closed set of units the engine knows about. The order
// matches the engine's unitInformation table.
type UnitType int

const (
	Wall UnitType = iota
	Support
	Turret
	Scout
	Demolisher
	Interceptor
)

// NumUnitTypes is the number of real unit types; the engine's table also
// carries the remove and upgrade pseudo-entries after them.
const NumUnitTypes = 6

// Shorthands the engine uses on the wire.
const (
	ShorthandRemove  = "RM"
	ShorthandUpgrade = "UP"
)

var shorthands = [NumUnitTypes]string{"FF", "EF", "DF", "PI", "EI", "SI"}

var unitNames = [NumUnitTypes]string{"wall", "support", "turret", "scout", "demolisher", "interceptor"}

func (t UnitType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("unit(%d)", int(t))
	}
	return unitNames[t]
}

func (t UnitType) Valid() bool { return t >= Wall && t <= Interceptor }

// Shorthand is the two-letter code the engine expects in commands.
func (t UnitType) Shorthand() string {
	if !t.Valid() {
		return ""
	}
	return shorthands[t]
}

// Stationary reports whether t is a structure.
func (t UnitType) Stationary() bool { return t >= Wall && t <= Turret }

// ParseUnitType accepts either a shorthand ("DF") or a name ("turret").
func ParseUnitType(s string) (UnitType, error) {
	for i := range NumUnitTypes {
		if shorthands[i] == s || unitNames[i] == s {
			return UnitType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

func (t UnitType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(t))
	}
	return []byte(unitNames[t]), nil
}

func (t *UnitType) UnmarshalText(b []byte) error {
	v, err := ParseUnitType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Stats are the numbers the decision core needs for one unit type in one
// upgrade state.
type Stats struct {
	Health             float64
	DamageToMobile     float64
	DamageToStructures float64
	Range              float64
	ShieldRange        float64
	ShieldPerUnit      float64
	ShieldBonusPerY    float64
	CostSP             float64
	CostMP             float64
	Speed              float64
}

// UnitInfo pairs the base stats with the upgraded overlay. UpgradeSP and
// UpgradeMP are what the upgrade itself costs. RefundFraction is the share
// of the spent cost a removed structure returns at full health.
type UnitInfo struct {
	Type           UnitType
	Base           Stats
	Upgraded       Stats
	UpgradeSP      float64
	UpgradeMP      float64
	RefundFraction float64
}

// Catalog is the per-type behaviour table for the current match.
type Catalog struct {
	Units [NumUnitTypes]UnitInfo
}

// Stats returns the stats for t in the given upgrade state.
func (c *Catalog) Stats(t UnitType, upgraded bool) Stats {
	if !t.Valid() {
		return Stats{}
	}
	if upgraded {
		return c.Units[t].Upgraded
	}
	return c.Units[t].Base
}

// Info returns the catalog entry for t.
func (c *Catalog) Info(t UnitType) UnitInfo {
	if !t.Valid() {
		return UnitInfo{}
	}
	return c.Units[t]
}

// MinStructureCost is the cheapest structure spawn, in SP.
func (c *Catalog) MinStructureCost() float64 {
	cost := c.Units[Wall].Base.CostSP
	for _, t := range []UnitType{Support, Turret} {
		if v := c.Units[t].Base.CostSP; v < cost {
			cost = v
		}
	}
	return cost
}

// DefaultCatalog returns the contest's standard unit table. It is used when
// the engine config omits a field and in tests.
func DefaultCatalog() Catalog {
	var c Catalog
	c.Units[Wall] = UnitInfo{
		Type:           Wall,
		Base:           Stats{Health: 60, CostSP: 1},
		Upgraded:       Stats{Health: 120, CostSP: 1},
		UpgradeSP:      1,
		RefundFraction: 0.75,
	}
	c.Units[Support] = UnitInfo{
		Type:           Support,
		Base:           Stats{Health: 30, ShieldRange: 3.5, ShieldPerUnit: 3, CostSP: 4},
		Upgraded:       Stats{Health: 30, ShieldRange: 7, ShieldPerUnit: 4, ShieldBonusPerY: 0.3, CostSP: 4},
		UpgradeSP:      4,
		RefundFraction: 0.75,
	}
	c.Units[Turret] = UnitInfo{
		Type:           Turret,
		Base:           Stats{Health: 75, DamageToMobile: 5, Range: 2.5, CostSP: 2},
		Upgraded:       Stats{Health: 75, DamageToMobile: 15, Range: 3.5, CostSP: 2},
		UpgradeSP:      4,
		RefundFraction: 0.75,
	}
	c.Units[Scout] = UnitInfo{
		Type:     Scout,
		Base:     Stats{Health: 15, DamageToMobile: 2, DamageToStructures: 2, Range: 3.5, CostMP: 1, Speed: 1},
		Upgraded: Stats{Health: 15, DamageToMobile: 2, DamageToStructures: 2, Range: 3.5, CostMP: 1, Speed: 1},
	}
	c.Units[Demolisher] = UnitInfo{
		Type:     Demolisher,
		Base:     Stats{Health: 5, DamageToMobile: 8, DamageToStructures: 8, Range: 4.5, CostMP: 3, Speed: 0.5},
		Upgraded: Stats{Health: 5, DamageToMobile: 8, DamageToStructures: 8, Range: 4.5, CostMP: 3, Speed: 0.5},
	}
	c.Units[Interceptor] = UnitInfo{
		Type:     Interceptor,
		Base:     Stats{Health: 40, DamageToMobile: 20, Range: 4.5, CostMP: 1, Speed: 0.25},
		Upgraded: Stats{Health: 40, DamageToMobile: 20, Range: 4.5, CostMP: 1, Speed: 0.25},
	}
	return c
}

// unitConfig mirrors one entry of the engine's unitInformation table.
// Every field is a pointer so omitted values fall back to the defaults.
// attackDamageWalker hits mobile units, attackDamageTower hits structures.
type unitConfig struct {
	Shorthand          string      `json:"shorthand"`
	StartHealth        *float64    `json:"startHealth"`
	AttackDamageWalker *float64    `json:"attackDamageWalker"`
	AttackDamageTower  *float64    `json:"attackDamageTower"`
	AttackRange        *float64    `json:"attackRange"`
	ShieldRange        *float64    `json:"shieldRange"`
	ShieldPerUnit      *float64    `json:"shieldPerUnit"`
	ShieldBonusPerY    *float64    `json:"shieldBonusPerY"`
	Cost1              *float64    `json:"cost1"`
	Cost2              *float64    `json:"cost2"`
	Speed              *float64    `json:"speed"`
	RefundPercentage   *float64    `json:"refundPercentage"`
	Upgrade            *unitConfig `json:"upgrade"`
}

func (u *unitConfig) apply(s *Stats) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Health, u.StartHealth)
	set(&s.DamageToMobile, u.AttackDamageWalker)
	set(&s.DamageToStructures, u.AttackDamageTower)
	set(&s.Range, u.AttackRange)
	set(&s.ShieldRange, u.ShieldRange)
	set(&s.ShieldPerUnit, u.ShieldPerUnit)
	set(&s.ShieldBonusPerY, u.ShieldBonusPerY)
	set(&s.CostSP, u.Cost1)
	set(&s.CostMP, u.Cost2)
	set(&s.Speed, u.Speed)
}

// ParseCatalog builds a Catalog from the engine's unitInformation table,
// layering it over DefaultCatalog.
func ParseCatalog(raw json.RawMessage) (Catalog, error) {
	var entries []unitConfig
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Catalog{}, fmt.Errorf("unmarshal unitInformation: %w", err)
	}
	c := DefaultCatalog()
	for i, e := range entries {
		// The remove and upgrade pseudo-entries carry nothing we model.
		if i >= NumUnitTypes {
			continue
		}
		if e.Shorthand != "" && e.Shorthand != shorthands[i] {
			return Catalog{}, fmt.Errorf("%w: entry %d has shorthand %q, want %q", ErrUnknownUnit, i, e.Shorthand, shorthands[i])
		}
		info := &c.Units[i]
		e.apply(&info.Base)
		if e.RefundPercentage != nil {
			info.RefundFraction = *e.RefundPercentage
		}
		if e.Upgrade != nil {
			info.Upgraded = info.Base
			e.Upgrade.apply(&info.Upgraded)
			// An upgrade's cost fields describe the upgrade itself.
			info.Upgraded.CostSP = info.Base.CostSP
			info.Upgraded.CostMP = info.Base.CostMP
			info.UpgradeSP, info.UpgradeMP = 0, 0
			if e.Upgrade.Cost1 != nil {
				info.UpgradeSP = *e.Upgrade.Cost1
			}
			if e.Upgrade.Cost2 != nil {
				info.UpgradeMP = *e.Upgrade.Cost2
			}
		}
	}
	return c, nil
}
