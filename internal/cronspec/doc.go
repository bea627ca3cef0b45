// Package cronspec evaluates 5-field cron expressions against wall-clock time.
//
// Supported syntax per field: "*", bare numbers, lists "a,b,c", ranges "a-b",
// and steps "*/n", "a-b/n", "a/n". Field order and ranges follow POSIX cron:
// minute 0-59, hour 0-23, day-of-month 1-31, month 1-12, day-of-week 0-6
// (Sunday=0). Seconds fields, month/day names, "?" and L/W/# are not
// supported.
//
// Matching is deliberately tolerant: a clause that cannot be parsed simply
// never matches, and an expression without exactly five fields never matches.
// Validate provides the strict counterpart for save-time checks.
package cronspec
