package dividend

import "time"

// =============================================================================
// FISCAL WINDOW CALCULATOR - Accounting-period bounds relative to "now"
// =============================================================================

// WindowKind selects which accounting window a caller wants. Source material
// disagrees on the business rule, so both are exposed as named variants.
type WindowKind string

const (
	// WindowCompletedFY is the most recently fully completed 1 Jul-30 Jun
	// fiscal year.
	WindowCompletedFY WindowKind = "fy"

	// WindowRolling365 is the trailing 365-day window ending today.
	WindowRolling365 WindowKind = "rolling"
)

// WindowFor computes the window of the given kind relative to ref.
// Unknown kinds fall back to the rolling window.
func WindowFor(kind WindowKind, ref time.Time) FiscalWindow {
	if kind == WindowCompletedFY {
		return CompletedFY(ref)
	}
	return Rolling365(ref)
}

// CompletedFY returns the most recently fully completed 1 Jul-30 Jun fiscal
// year relative to ref. If ref is in July or later the just-completed period
// started last calendar year; otherwise the period that started last 1 July
// is still open, so the window reaches one year further back.
func CompletedFY(ref time.Time) FiscalWindow {
	startYear := ref.Year() - 2
	if ref.Month() >= time.July {
		startYear = ref.Year() - 1
	}
	start := time.Date(startYear, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1) // 30 June the following year
	return FiscalWindow{Start: start, End: end}
}

// Rolling365 returns the trailing 365-day window [ref-365d, ref], inclusive
// both ends. Times are truncated to whole days.
func Rolling365(ref time.Time) FiscalWindow {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return FiscalWindow{Start: day.AddDate(0, 0, -365), End: day}
}
