package pricing

import (
	"errors"
	"strings"
	"time"

	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/parse"
)

// RuleType discriminates the condition carried by a Rule.
type RuleType string

const (
	DayOfWeek     RuleType = "DayOfWeek"
	LengthOfStay  RuleType = "LengthOfStay"
	BookingWindow RuleType = "BookingWindow"
	DateRange     RuleType = "DateRange"
)

var typeAliases = map[string]RuleType{
	"dayofweek":     DayOfWeek,
	"weekday":       DayOfWeek,
	"lengthofstay":  LengthOfStay,
	"los":           LengthOfStay,
	"stay":          LengthOfStay,
	"bookingwindow": BookingWindow,
	"leadtime":      BookingWindow,
	"daterange":     DateRange,
	"season":        DateRange,
	"seasonal":      DateRange,
}

// ResolveType maps an operator-entered type name ("Day of week", "length_of_stay")
// onto a RuleType. ok is false for names this version does not know.
func ResolveType(raw string) (RuleType, bool) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(raw)))
	t, ok := typeAliases[key]
	return t, ok
}

// Stay is what conditions are evaluated against.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
	Nights   int
	// Window is the number of calendar days between the quote time and check-in.
	Window int
}

// Condition is the typed payload of a rule.
type Condition interface {
	Matches(s Stay) bool
}

// WeekdayCondition matches on the weekday of check-in.
type WeekdayCondition struct {
	Days []time.Weekday
}

func (c WeekdayCondition) Matches(s Stay) bool {
	wd := s.CheckIn.Weekday()
	for _, d := range c.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// NightsCondition matches on the total number of nights.
type NightsCondition struct {
	parse.Threshold
}

func (c NightsCondition) Matches(s Stay) bool { return c.Contains(s.Nights) }

// WindowCondition matches on the booking window. "Same day" is exactly 0:
// a booking made the evening before check-in has a window of 1.
type WindowCondition struct {
	parse.Threshold
}

func (c WindowCondition) Matches(s Stay) bool { return c.Contains(s.Window) }

// DateCondition matches on the check-in date.
type DateCondition struct {
	parse.DateWindow
}

func (c DateCondition) Matches(s Stay) bool { return c.Contains(s.CheckIn) }

// noopCondition stands in for rule types this version does not understand.
type noopCondition struct{}

func (noopCondition) Matches(Stay) bool { return false }

// Rule is a validated pricing rule.
type Rule struct {
	Name      string
	Type      RuleType
	Condition Condition
	// Percent is the signed adjustment, e.g. 20 for +20%.
	Percent  float64
	Priority int
	Active   bool
}

// Factor is the multiplier the rule applies when it matches.
func (r Rule) Factor() float64 {
	return 1 + r.Percent/100
}

// LoadRule validates a stored rule. Inactive rows are carried without parsing
// so a half-edited draft never blocks pricing.
func LoadRule(row model.PricingRule) (Rule, error) {
	rule := Rule{
		Name:      row.Name,
		Priority:  row.Priority,
		Active:    row.Active,
		Condition: noopCondition{},
	}
	if t, ok := ResolveType(row.Type); ok {
		rule.Type = t
	} else {
		rule.Type = RuleType(strings.TrimSpace(row.Type))
	}
	if !row.Active {
		return rule, nil
	}

	pct, err := parse.Percent(row.Adjustment)
	if err != nil {
		return Rule{}, &errs.InvalidRuleError{Rule: row.Name, Field: "adjustment", Value: row.Adjustment, Reason: "not a percentage"}
	}
	rule.Percent = pct

	invalid := func(err error) error {
		return &errs.InvalidRuleError{Rule: row.Name, Field: "condition", Value: row.Condition, Reason: err.Error()}
	}
	switch rule.Type {
	case DayOfWeek:
		days, err := parse.Weekdays(row.Condition)
		if err != nil {
			return Rule{}, invalid(err)
		}
		rule.Condition = WeekdayCondition{Days: days}
	case LengthOfStay:
		th, err := parse.ParseThreshold(row.Condition)
		if err != nil {
			return Rule{}, invalid(err)
		}
		rule.Condition = NightsCondition{th}
	case BookingWindow:
		th, err := parse.ParseThreshold(row.Condition)
		if err != nil {
			return Rule{}, invalid(err)
		}
		rule.Condition = WindowCondition{th}
	case DateRange:
		w, err := parse.ParseDateWindow(row.Condition)
		if err != nil {
			return Rule{}, invalid(err)
		}
		rule.Condition = DateCondition{w}
	}
	return rule, nil
}

// LoadRules validates every stored rule, reporting all malformed rows at once.
func LoadRules(rows []model.PricingRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(rows))
	var problems []error
	for _, row := range rows {
		r, err := LoadRule(row)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		rules = append(rules, r)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return rules, nil
}
