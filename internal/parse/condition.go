package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var listSep = regexp.MustCompile(`\s*[,;/]\s*|\s+`)

func splitList(s string) []string {
	var out []string
	for _, p := range listSep.Split(strings.TrimSpace(s), -1) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Weekdays parses "Weekend", "Weekdays", "Fri,Sat" or "Mon-Thu".
func Weekdays(raw string) ([]time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "weekend", "weekends":
		return []time.Weekday{time.Saturday, time.Sunday}, nil
	case "weekday", "weekdays":
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
	}

	seen := make(map[time.Weekday]bool)
	var out []time.Weekday
	add := func(wd time.Weekday) {
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if from, to, ok := strings.Cut(part, "-"); ok {
			a, okA := weekdayNames[strings.TrimSpace(from)]
			b, okB := weekdayNames[strings.TrimSpace(to)]
			if !okA || !okB {
				return nil, fmt.Errorf("unknown weekday range %q", part)
			}
			for wd := a; ; wd = (wd + 1) % 7 {
				add(wd)
				if wd == b {
					break
				}
			}
			continue
		}
		for _, name := range splitList(part) {
			wd, ok := weekdayNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			add(wd)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no weekdays in %q", raw)
	}
	return out, nil
}

// Threshold is an inclusive integer bound; a nil side is unbounded.
type Threshold struct {
	Min *int
	Max *int
}

// Contains reports whether n satisfies both bounds.
func (t Threshold) Contains(n int) bool {
	if t.Min != nil && n < *t.Min {
		return false
	}
	if t.Max != nil && n > *t.Max {
		return false
	}
	return true
}

var (
	plusRe  = regexp.MustCompile(`^(\d+)\s*\+$`)
	cmpRe   = regexp.MustCompile(`^(>=|<=|>|<|=)\s*(\d+)$`)
	spanRe  = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	exactRe = regexp.MustCompile(`^(\d+)$`)
	// trailing unit words such as "nights" or "days" are ignored
	unitRe = regexp.MustCompile(`\s*(nights?|days?)$`)
)

// ParseThreshold parses "7+", ">=7", "<3", "3-6", "5" and "same day" (exactly 0).
func ParseThreshold(raw string) (Threshold, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "same day" || s == "sameday" || s == "same-day" {
		zero := 0
		return Threshold{Min: &zero, Max: &zero}, nil
	}
	s = unitRe.ReplaceAllString(s, "")

	atoi := func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	}
	intp := func(n int) *int { return &n }

	if m := plusRe.FindStringSubmatch(s); m != nil {
		return Threshold{Min: intp(atoi(m[1]))}, nil
	}
	if m := cmpRe.FindStringSubmatch(s); m != nil {
		n := atoi(m[2])
		switch m[1] {
		case ">=":
			return Threshold{Min: intp(n)}, nil
		case ">":
			return Threshold{Min: intp(n + 1)}, nil
		case "<=":
			return Threshold{Max: intp(n)}, nil
		case "<":
			return Threshold{Max: intp(n - 1)}, nil
		default:
			return Threshold{Min: intp(n), Max: intp(n)}, nil
		}
	}
	if m := spanRe.FindStringSubmatch(s); m != nil {
		lo, hi := atoi(m[1]), atoi(m[2])
		if lo > hi {
			return Threshold{}, fmt.Errorf("inverted span %q", raw)
		}
		return Threshold{Min: intp(lo), Max: intp(hi)}, nil
	}
	if m := exactRe.FindStringSubmatch(s); m != nil {
		n := atoi(m[1])
		return Threshold{Min: intp(n), Max: intp(n)}, nil
	}
	return Threshold{}, fmt.Errorf("not a threshold: %q", raw)
}

// DateWindow selects check-in dates either by month or by an explicit
// inclusive span of days.
type DateWindow struct {
	Months [13]bool
	Start  time.Time
	End    time.Time
}

// Contains reports whether t's calendar day falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() {
		y, m, d := t.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return !day.Before(w.Start) && !day.After(w.End)
	}
	return w.Months[t.Month()]
}

// ParseDateWindow parses "2024-06-01..2024-08-31", "Jun-Aug", "Dec-Feb" or "Jun,Jul".
func ParseDateWindow(raw string) (DateWindow, error) {
	s := strings.TrimSpace(raw)
	if from, to, ok := strings.Cut(s, ".."); ok {
		start, err := time.Parse(time.DateOnly, strings.TrimSpace(from))
		if err != nil {
			return DateWindow{}, fmt.Errorf("bad window start %q", from)
		}
		end, err := time.Parse(time.DateOnly, strings.TrimSpace(to))
		if err != nil {
			return DateWindow{}, fmt.Errorf("bad window end %q", to)
		}
		if end.Before(start) {
			return DateWindow{}, fmt.Errorf("inverted window %q", raw)
		}
		return DateWindow{Start: start, End: end}, nil
	}

	var w DateWindow
	lower := strings.ToLower(s)
	for _, part := range strings.Split(lower, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if from, to, ok := strings.Cut(part, "-"); ok {
			a, err := month(from)
			if err != nil {
				return DateWindow{}, err
			}
			b, err := month(to)
			if err != nil {
				return DateWindow{}, err
			}
			for m := a; ; m = m%12 + 1 {
				w.Months[m] = true
				if m == b {
					break
				}
			}
			continue
		}
		m, err := month(part)
		if err != nil {
			return DateWindow{}, err
		}
		w.Months[m] = true
	}
	for m := time.January; m <= time.December; m++ {
		if w.Months[m] {
			return w, nil
		}
	}
	return DateWindow{}, fmt.Errorf("no months in %q", raw)
}

func month(raw string) (time.Month, error) {
	s := strings.TrimSpace(raw)
	if m, ok := monthNames[s]; ok {
		return m, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), nil
	}
	return 0, fmt.Errorf("unknown month %q", raw)
}
