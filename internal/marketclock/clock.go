// Package marketclock anchors all "today" and cutoff decisions to the
// source market's timezone (Asia/Shanghai) instead of the process-local
// clock, and answers local trading-day checks from the XSHG calendar
// without a source round-trip.
package marketclock

import (
	"log/slog"
	"time"

	"github.com/scmhub/calendar"
)

const dateLayout = "2006-01-02"

// Clock provides market-local time, the daily-update cutoff, and a local
// trading-day check.
type Clock struct {
	loc    *time.Location
	cal    *calendar.Calendar
	cutoff time.Duration // offset from local midnight

	// nowFn is replaceable in tests.
	nowFn func() time.Time
}

// New creates a Clock with the daily-update cutoff at hour:min market time.
func New(cutoffHour, cutoffMin int) *Clock {
	return NewAt(cutoffHour, cutoffMin, time.Now)
}

// NewAt is New with an explicit time source, for tests and simulations.
func NewAt(cutoffHour, cutoffMin int, nowFn func() time.Time) *Clock {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// CST has no DST; a fixed offset is an exact fallback.
		loc = time.FixedZone("CST", 8*60*60)
	}

	cal := calendar.GetCalendar("xshg")
	if cal == nil {
		slog.Warn("XSHG calendar unavailable, falling back to Mon-Fri")
	}

	return &Clock{
		loc:    loc,
		cal:    cal,
		cutoff: time.Duration(cutoffHour)*time.Hour + time.Duration(cutoffMin)*time.Minute,
		nowFn:  nowFn,
	}
}

// Now returns the current market-local time.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// Today returns the current market-local date.
func (c *Clock) Today() string {
	return c.Now().Format(dateLayout)
}

// Yesterday returns the market-local date one day back.
func (c *Clock) Yesterday() string {
	return c.Now().AddDate(0, 0, -1).Format(dateLayout)
}

// AfterCutoff reports whether the daily-update cutoff has passed today.
func (c *Clock) AfterCutoff() bool {
	now := c.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return now.Sub(midnight) >= c.cutoff
}

// IsTradingDay reports whether date is an XSHG business day. Unparseable
// dates report false. When the calendar is unavailable the check degrades
// to weekdays.
func (c *Clock) IsTradingDay(date string) bool {
	t, err := time.ParseInLocation(dateLayout, date, c.loc)
	if err != nil {
		return false
	}
	if c.cal == nil {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.cal.IsBusinessDay(t)
}

// CurrentQuarter returns the current fiscal (year, quarter) in market time.
func (c *Clock) CurrentQuarter() (int, int) {
	now := c.Now()
	return now.Year(), (int(now.Month())-1)/3 + 1
}
