// Package pricing applies prioritised rate-adjustment rules to a base rate.
package pricing

import (
	"sort"
	"time"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/model"
)

// Quote is the outcome of pricing a stay.
type Quote struct {
	BaseRate float64  `json:"baseRate"`
	Rate     float64  `json:"rate"`
	Nights   int      `json:"nights"`
	Total    float64  `json:"total"`
	Applied  []string `json:"applied"`
}

// QuoteAt prices [checkIn, checkOut) at baseRate as seen from now.
//
// Active rules are stably sorted by ascending priority and each matching rule
// multiplies the running rate by (1 + percent/100). Adjustments compound, so
// the result depends on priority order; Applied lists matched rule names in
// the order they were applied.
func QuoteAt(baseRate float64, checkIn, checkOut time.Time, rules []Rule, now time.Time) (Quote, error) {
	nights, err := dates.NightsBetween(checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	stay := Stay{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Nights:   nights,
		Window:   dates.DaysBetween(now, checkIn),
	}

	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	q := Quote{BaseRate: baseRate, Rate: baseRate, Nights: nights, Applied: []string{}}
	for _, r := range active {
		if r.Condition == nil || !r.Condition.Matches(stay) {
			continue
		}
		q.Rate *= r.Factor()
		q.Applied = append(q.Applied, r.Name)
	}
	q.Total = q.Rate * float64(nights)
	return q, nil
}

// Engine prices stays against an injectable clock.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine reading the time from now; nil means time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Quote prices a stay with already-validated rules.
func (e *Engine) Quote(baseRate float64, checkIn, checkOut time.Time, rules []Rule) (Quote, error) {
	return QuoteAt(baseRate, checkIn, checkOut, rules, e.now())
}

// QuoteRows validates stored rules and prices the stay with them.
func (e *Engine) QuoteRows(baseRate float64, checkIn, checkOut time.Time, rows []model.PricingRule) (Quote, error) {
	rules, err := LoadRules(rows)
	if err != nil {
		return Quote{}, err
	}
	return e.Quote(baseRate, checkIn, checkOut, rules)
}
