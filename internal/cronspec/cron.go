package cronspec

import (
	"strconv"
	"strings"
	"time"
)

type bounds struct {
	min, max int
}

// Field order: minute, hour, day-of-month, month, day-of-week.
var fieldBounds = [5]bounds{
	{0, 59},
	{0, 23},
	{1, 31},
	{1, 12},
	{0, 6},
}

// Parts splits a cron expression on whitespace runs. An expression without
// exactly five fields is invalid and reported as (nil, false); callers treat
// that as "never matches".
func Parts(expr string) ([]string, bool) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, false
	}
	return fields, true
}

// Matches reports whether expr is due at t, using t's wall-clock components
// (so the caller controls the timezone by handing in a located time).
func Matches(expr string, t time.Time) bool {
	parts, ok := Parts(expr)
	if !ok {
		return false
	}
	values := [5]int{
		t.Minute(),
		t.Hour(),
		t.Day(),
		int(t.Month()),
		int(t.Weekday()), // Sunday=0
	}
	for i, p := range parts {
		if !FieldMatches(p, values[i], fieldBounds[i].min, fieldBounds[i].max) {
			return false
		}
	}
	return true
}

// FieldMatches evaluates a single cron field against a concrete value.
// Comma-separated clauses are OR-ed: one matching clause matches the field.
func FieldMatches(field string, value, min, max int) bool {
	field = strings.TrimSpace(field)
	if field == "*" {
		return true
	}
	for _, clause := range strings.Split(field, ",") {
		if clauseMatches(clause, value, min, max) {
			return true
		}
	}
	return false
}

// clauseMatches interprets one comma-separated clause. This is the single
// place where the tolerant policy lives: anything unparseable (bad step
// divisor, bad range endpoint) makes the clause non-matching, never an error.
func clauseMatches(clause string, value, min, max int) bool {
	if i := strings.IndexByte(clause, '/'); i >= 0 {
		rangePart, stepPart := clause[:i], clause[i+1:]
		step, ok := parseNum(stepPart)
		if !ok || step <= 0 {
			return false
		}
		start, end := min, max
		switch {
		case rangePart == "" || rangePart == "*":
			// full range
		case strings.Contains(rangePart, "-"):
			lo, hi := splitRange(rangePart)
			var okLo, okHi bool
			start, okLo = parseNum(lo)
			end, okHi = parseNum(hi)
			if !okLo || !okHi {
				return false
			}
		default:
			s, ok := parseNum(rangePart)
			if !ok {
				return false
			}
			start, end = s, max
		}
		if value < start || value > end {
			return false
		}
		return (value-start)%step == 0
	}

	if strings.Contains(clause, "-") {
		lo, hi := splitRange(clause)
		start, okLo := parseNum(lo)
		end, okHi := parseNum(hi)
		if !okLo || !okHi {
			return false
		}
		return value >= start && value <= end
	}

	n, ok := parseNum(clause)
	return ok && n == value
}

func splitRange(s string) (string, string) {
	parts := strings.SplitN(s, "-", 2)
	return parts[0], parts[1]
}

func parseNum(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
