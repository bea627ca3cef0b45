package cronspec

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// strictParser accepts the same five fields the matcher evaluates, without
// descriptors ("@hourly") or a seconds field.
var strictParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

const allowedChars = "0123456789*,-/"

// Validate rejects, at save time, expressions the runtime matcher cannot
// honor. The matcher itself stays tolerant (unparseable clauses never match,
// see clauseMatches); Validate is the strict layer on top so that malformed
// crons are caught when a flow is written instead of silently never firing.
func Validate(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("cron expression required")
	}
	parts, ok := Parts(expr)
	if !ok {
		return fmt.Errorf("cron %q: expected 5 fields, got %d", expr, len(strings.Fields(expr)))
	}
	for _, p := range parts {
		for _, r := range p {
			if !strings.ContainsRune(allowedChars, r) {
				return fmt.Errorf("cron %q: unsupported character %q (names, '?' and seconds fields are not supported)", expr, r)
			}
		}
	}
	if _, err := strictParser.Parse(expr); err != nil {
		return fmt.Errorf("cron %q: %w", expr, err)
	}
	return nil
}
