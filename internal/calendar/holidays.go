package calendar

import (
	"fmt"
)

// HolidayKind selects how a HolidayRule matches a day.
type HolidayKind string

const (
	// KindLunar matches a fixed day of a non-leap lunar month.
	KindLunar HolidayKind = "lunar"
	// KindSolarTerm matches the day on which a solar term begins.
	KindSolarTerm HolidayKind = "solar_term"
	// KindFloating matches a day offset from an anchor event.
	KindFloating HolidayKind = "floating"
)

// HolidayAnchor is the event a floating holiday is measured from.
type HolidayAnchor string

const (
	// AnchorSolarTerm is the day the rule's Term begins.
	AnchorSolarTerm HolidayAnchor = "solar_term"
	// AnchorNewMoon is the first day of the rule's Month.
	AnchorNewMoon HolidayAnchor = "new_moon"
	// AnchorFullMoon is the day of the full moon within the rule's Month.
	AnchorFullMoon HolidayAnchor = "full_moon"
)

// HolidayRule declares one holiday.
type HolidayRule struct {
	Name   string        `json:"name" yaml:"name" validate:"required,max=100"`
	Kind   HolidayKind   `json:"kind" yaml:"kind" validate:"required,oneof=lunar solar_term floating"`
	Month  int           `json:"month,omitempty" yaml:"month" validate:"gte=0,lte=12"`
	Day    int           `json:"day,omitempty" yaml:"day" validate:"gte=0,lte=30"`
	Term   string        `json:"term,omitempty" yaml:"term"`
	Anchor HolidayAnchor `json:"anchor,omitempty" yaml:"anchor" validate:"omitempty,oneof=solar_term new_moon full_moon"`
	Offset int           `json:"offset,omitempty" yaml:"offset" validate:"gte=-60,lte=60"`
}

// Validate checks the fields the rule's kind depends on.
func (r HolidayRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("holiday rule: name is required")
	}
	needMonth := func() error {
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("holiday %q: month %d out of range", r.Name, r.Month)
		}
		return nil
	}
	needTerm := func() error {
		if _, ok := SolarTermIndex(r.Term); !ok {
			return fmt.Errorf("holiday %q: unknown solar term %q", r.Name, r.Term)
		}
		return nil
	}

	switch r.Kind {
	case KindLunar:
		if err := needMonth(); err != nil {
			return err
		}
		if r.Day < 1 || r.Day > 30 {
			return fmt.Errorf("holiday %q: day %d out of range", r.Name, r.Day)
		}
	case KindSolarTerm:
		return needTerm()
	case KindFloating:
		switch r.Anchor {
		case AnchorSolarTerm:
			return needTerm()
		case AnchorNewMoon, AnchorFullMoon:
			return needMonth()
		default:
			return fmt.Errorf("holiday %q: unknown anchor %q", r.Name, r.Anchor)
		}
	default:
		return fmt.Errorf("holiday %q: unknown kind %q", r.Name, r.Kind)
	}
	return nil
}

// DefaultHolidays is the built-in holiday table, in reporting order.
var DefaultHolidays = []HolidayRule{
	{Name: "Lunar New Year", Kind: KindLunar, Month: 1, Day: 1},
	{Name: "Lantern Festival", Kind: KindLunar, Month: 1, Day: 15},
	{Name: "Dragon Head Raising", Kind: KindLunar, Month: 2, Day: 2},
	{Name: "Shangsi Festival", Kind: KindLunar, Month: 3, Day: 3},
	{Name: "Dragon Boat Festival", Kind: KindLunar, Month: 5, Day: 5},
	{Name: "Qixi Festival", Kind: KindLunar, Month: 7, Day: 7},
	{Name: "Ghost Festival", Kind: KindLunar, Month: 7, Day: 15},
	{Name: "Mid-Autumn Festival", Kind: KindLunar, Month: 8, Day: 15},
	{Name: "Double Ninth Festival", Kind: KindLunar, Month: 9, Day: 9},
	{Name: "Winter Clothing Festival", Kind: KindLunar, Month: 10, Day: 1},
	{Name: "Xiayuan Festival", Kind: KindLunar, Month: 10, Day: 15},
	{Name: "Laba Festival", Kind: KindLunar, Month: 12, Day: 8},
	{Name: "Kitchen God Festival", Kind: KindLunar, Month: 12, Day: 23},
	{Name: "Qingming Festival", Kind: KindSolarTerm, Term: "pure_brightness"},
	{Name: "Winter Solstice Festival", Kind: KindSolarTerm, Term: "winter_solstice"},
	{Name: "Cold Food Festival", Kind: KindFloating, Anchor: AnchorSolarTerm, Term: "pure_brightness", Offset: -1},
	{Name: "New Year's Eve", Kind: KindFloating, Anchor: AnchorNewMoon, Month: 1, Offset: -1},
	{Name: "Lantern Moon", Kind: KindFloating, Anchor: AnchorFullMoon, Month: 1},
}

// HolidayResolver matches days against a holiday table.
type HolidayResolver struct {
	rules []HolidayRule
}

// NewHolidayResolver returns a resolver over DefaultHolidays followed by
// the extra rules.
func NewHolidayResolver(extra ...HolidayRule) *HolidayResolver {
	rules := make([]HolidayRule, 0, len(DefaultHolidays)+len(extra))
	rules = append(rules, DefaultHolidays...)
	rules = append(rules, extra...)
	return &HolidayResolver{rules: rules}
}

// Rules returns a copy of the table.
func (h *HolidayResolver) Rules() []HolidayRule {
	out := make([]HolidayRule, len(h.rules))
	copy(out, h.rules)
	return out
}

// Holidays returns the names of the holidays falling on info's day, in
// table order.
func (h *HolidayResolver) Holidays(info DayInfo) []string {
	var out []string
	for _, r := range h.rules {
		if h.matches(r, info) {
			out = append(out, r.Name)
		}
	}
	return out
}

func (h *HolidayResolver) matches(r HolidayRule, info DayInfo) bool {
	switch r.Kind {
	case KindLunar:
		return !info.Date.IsLeapMonth && info.Date.Month == r.Month && info.Date.Day == r.Day
	case KindSolarTerm:
		return termOnDay(info, r.Term)
	case KindFloating:
		anchor := info
		if r.Offset != 0 {
			var err error
			if anchor, err = info.Shift(-r.Offset); err != nil {
				return false
			}
		}
		switch r.Anchor {
		case AnchorSolarTerm:
			return termOnDay(anchor, r.Term)
		case AnchorNewMoon:
			d := anchor.Date
			return !d.IsLeapMonth && d.Month == r.Month && d.Day == 1
		case AnchorFullMoon:
			m := anchor.Month
			return !m.IsLeap && m.Number == r.Month && anchor.Clock.DayOf(m.FullMoon) == anchor.Day
		}
	}
	return false
}

func termOnDay(info DayInfo, name string) bool {
	if info.Clock == nil {
		return false
	}
	for _, t := range info.Terms {
		if t.Name == name && info.Clock.DayOf(t.Date) == info.Day {
			return true
		}
	}
	return false
}
