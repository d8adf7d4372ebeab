// Package parse turns free-text spreadsheet cells into typed values.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	percentRe = regexp.MustCompile(`^([+-]?)\s*(\d+(?:\.\d+)?)\s*%?$`)
	moneyJunk = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", " ", "", " ", "")
	minusSign = strings.NewReplacer("−", "-", "–", "-")
)

// Percent parses a signed percentage such as "+20%", "-10", or "12.5 %".
func Percent(raw string) (float64, error) {
	s := strings.TrimSpace(minusSign.Replace(raw))
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("not a percentage: %q", raw)
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("not a percentage: %q", raw)
	}
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}

// Money parses an amount cell. Currency symbols and thousands separators are
// ignored; "(150)" is read as -150.
func Money(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(minusSign.Replace(raw))
	if s == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(moneyJunk.Replace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not an amount: %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
}

// Date parses a date cell in loc. Layouts without a zone are read in loc.
func Date(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date: %q", raw)
}

// OptionalDate is Date for cells that may be blank.
func OptionalDate(raw string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Date(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Bool reads checkbox-style cells. Blank is false.
func Bool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "f", "false", "no", "n", "off", "inactive":
		return false, nil
	case "1", "t", "true", "yes", "y", "on", "active", "✓", "x":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}

// Int parses an integer cell; blank is zero.
func Int(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// spreadsheets often hand back "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("not an integer: %q", raw)
		}
		return int(f), nil
	}
	return n, nil
}

// Float parses a decimal cell; blank is zero.
func Float(raw string) (float64, error) {
	s := moneyJunk.Replace(strings.TrimSpace(minusSign.Replace(raw)))
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return f, nil
}
