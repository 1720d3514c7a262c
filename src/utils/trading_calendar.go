package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar calculates business days using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar returns the exchange calendar for a MIC (ISO 10383), e.g. "XNSE".
// Unknown MICs fall back to Monday-Friday in UTC.
func GetCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(strings.ToLower(mic))
	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s'. Using simple fallback (Mon-Fri UTC).", mic)
		return &TradingCalendar{Fallback: true, Timezone: time.UTC}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the calendar date of date is a business day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}

	// Same calendar date, noon in the exchange timezone
	y, m, d := date.Date()
	local := time.Date(y, m, d, 12, 0, 0, 0, tc.Timezone)
	return tc.Calendar.IsBusinessDay(local)
}

// -----------------------------------------------------------------------------

// BusinessDaysBetween counts business days in (from, to]. Zero when to <= from.
func (tc *TradingCalendar) BusinessDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if tc.IsTradingDay(d) {
			count++
		}
	}
	return count
}
