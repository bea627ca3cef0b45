package cronspec

import (
	"testing"
	"time"
)

func TestPartsFieldCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		expr string
		ok   bool
	}{
		{name: "five fields", expr: "* * * * *", ok: true},
		{name: "extra whitespace", expr: "  */5\t*  * * 1 ", ok: true},
		{name: "four fields", expr: "* * * *", ok: false},
		{name: "six fields", expr: "0 * * * * *", ok: false},
		{name: "one field", expr: "invalid", ok: false},
		{name: "empty", expr: "", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			parts, ok := Parts(tt.expr)
			if ok != tt.ok {
				t.Fatalf("Parts(%q) ok = %v, want %v", tt.expr, ok, tt.ok)
			}
			if ok && len(parts) != 5 {
				t.Fatalf("Parts(%q) returned %d fields", tt.expr, len(parts))
			}
		})
	}
}

func TestFieldMatches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		field string
		value int
		want  bool
	}{
		{name: "wildcard", field: "*", value: 37, want: true},
		{name: "wildcard padded", field: " * ", value: 0, want: true},
		{name: "bare equal", field: "5", value: 5, want: true},
		{name: "bare unequal", field: "5", value: 6, want: false},
		{name: "list hit", field: "1,5,9", value: 9, want: true},
		{name: "list miss", field: "1,5,9", value: 8, want: false},
		{name: "range inside", field: "10-20", value: 15, want: true},
		{name: "range edge low", field: "10-20", value: 10, want: true},
		{name: "range edge high", field: "10-20", value: 20, want: true},
		{name: "range outside", field: "10-20", value: 21, want: false},
		{name: "step from zero 0", field: "*/15", value: 0, want: true},
		{name: "step from zero 15", field: "*/15", value: 15, want: true},
		{name: "step from zero 30", field: "*/15", value: 30, want: true},
		{name: "step from zero 45", field: "*/15", value: 45, want: true},
		{name: "step from zero 1", field: "*/15", value: 1, want: false},
		{name: "step from zero 16", field: "*/15", value: 16, want: false},
		{name: "range step 10", field: "10-20/5", value: 10, want: true},
		{name: "range step 15", field: "10-20/5", value: 15, want: true},
		{name: "range step 20", field: "10-20/5", value: 20, want: true},
		{name: "range step 12", field: "10-20/5", value: 12, want: false},
		{name: "range step 25", field: "10-20/5", value: 25, want: false},
		{name: "bare start step hit", field: "5/10", value: 25, want: true},
		{name: "bare start step miss", field: "5/10", value: 26, want: false},
		{name: "bare start step below start", field: "5/10", value: 0, want: false},
		{name: "empty range step", field: "/20", value: 40, want: true},
		{name: "bad step divisor", field: "*/abc", value: 0, want: false},
		{name: "zero step divisor", field: "*/0", value: 0, want: false},
		{name: "negative step divisor", field: "*/-5", value: 0, want: false},
		{name: "bad range endpoint", field: "a-20", value: 10, want: false},
		{name: "bad bare", field: "x", value: 0, want: false},
		{name: "bad clause with good alternative", field: "x,30", value: 30, want: true},
		{name: "bad step with good alternative", field: "*/abc,7", value: 7, want: true},
		{name: "reversed range", field: "20-10", value: 15, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := FieldMatches(tt.field, tt.value, 0, 59); got != tt.want {
				t.Fatalf("FieldMatches(%q, %d) = %v, want %v", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

func TestMatchesWholeExpression(t *testing.T) {
	t.Parallel()

	// 2024-04-01 is a Monday, 2024-04-06 a Saturday.
	monday1430 := time.Date(2024, 4, 1, 14, 30, 0, 0, time.UTC)
	saturday1430 := time.Date(2024, 4, 6, 14, 30, 0, 0, time.UTC)
	jan1Midnight := time.Date(2024, 1, 1, 0, 0, 42, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		at   time.Time
		want bool
	}{
		{name: "wildcard always", expr: "* * * * *", at: monday1430, want: true},
		{name: "every 5 at :05", expr: "*/5 * * * *", at: time.Date(2024, 4, 1, 12, 5, 0, 0, time.UTC), want: true},
		{name: "every 5 at :07", expr: "*/5 * * * *", at: time.Date(2024, 4, 1, 12, 7, 0, 0, time.UTC), want: false},
		{name: "weekday afternoon monday", expr: "30 14 * * 1-5", at: monday1430, want: true},
		{name: "weekday afternoon saturday", expr: "30 14 * * 1-5", at: saturday1430, want: false},
		{name: "new year", expr: "0 0 1 1 *", at: jan1Midnight, want: true},
		{name: "new year wrong day", expr: "0 0 1 1 *", at: monday1430, want: false},
		{name: "wrong field count", expr: "* * * *", at: monday1430, want: false},
		{name: "garbage", expr: "invalid cron", at: monday1430, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.expr, tt.at); got != tt.want {
				t.Fatalf("Matches(%q, %s) = %v, want %v", tt.expr, tt.at, got, tt.want)
			}
		})
	}
}

func TestMatchesSundayIsZero(t *testing.T) {
	t.Parallel()
	sunday := time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC)
	if !Matches("0 9 * * 0", sunday) {
		t.Fatal("expected dow 0 to match a Sunday")
	}
	if Matches("0 9 * * 1", sunday) {
		t.Fatal("dow 1 must not match a Sunday")
	}
}

func TestMinuteKey(t *testing.T) {
	t.Parallel()
	a := time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC)
	b := time.Date(2026, 8, 29, 14, 30, 59, 999_000_000, time.UTC)
	c := time.Date(2026, 8, 29, 14, 31, 0, 0, time.UTC)

	if got := MinuteKey(a); got != "2026-08-29T14:30" {
		t.Fatalf("MinuteKey = %q", got)
	}
	if MinuteKey(a) != MinuteKey(b) {
		t.Fatal("keys within the same minute must be identical")
	}
	if MinuteKey(a) == MinuteKey(c) {
		t.Fatal("keys one minute apart must differ")
	}

	// Zero padding.
	if got := MinuteKey(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)); got != "2026-01-02T03:04" {
		t.Fatalf("MinuteKey = %q, want zero-padded components", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := []string{
		"* * * * *",
		"*/5 * * * *",
		"30 14 * * 1-5",
		"0 0 1 1 *",
		"10-20/5 * * * *",
		"1,5,9 * * * *",
	}
	for _, expr := range valid {
		if err := Validate(expr); err != nil {
			t.Fatalf("Validate(%q) = %v, want nil", expr, err)
		}
	}

	invalid := []string{
		"",
		"* * * *",
		"0 * * * * *",
		"*/abc * * * *",
		"? * * * *",
		"0 0 * JAN *",
		"70 * * * *",
	}
	for _, expr := range invalid {
		if err := Validate(expr); err == nil {
			t.Fatalf("Validate(%q) = nil, want error", expr)
		}
	}
}
