// Package calendar provides NYSE trading-session date arithmetic: ordered
// session sequences between two dates and the lookback/lookahead window
// around an earnings session.
package calendar

import (
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// Eastern is the exchange-local timezone used for all session timestamps.
var Eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Session open/close times.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 16
	CloseMinute = 0
)

// Sessions returns the ordered valid trading dates in [start, end], both
// inclusive. Dates are normalized to midnight UTC; only the date component
// is meaningful.
func Sessions(start, end time.Time) []time.Time {
	start = dateOnly(start)
	end = dateOnly(end)

	var sessions []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			sessions = append(sessions, d)
		}
	}
	return sessions
}

// IsTradingDay reports whether d falls on a regular NYSE session.
func IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(dateOnly(d))
}

// Window derives the session-aligned analysis window around an earnings
// date: lookback sessions before and lookahead sessions after, clamped to
// the ends of the scanned range. If the earnings date itself is not a
// session (holiday announcement), the window starts from the first scanned
// session.
func Window(earningsDate time.Time, lookback, lookahead int) (start, end time.Time, err error) {
	scanFrom := earningsDate.AddDate(0, 0, -lookback*2)
	scanTo := earningsDate.AddDate(0, 0, lookahead*2)

	sessions := Sessions(scanFrom, scanTo)
	if len(sessions) == 0 {
		return time.Time{}, time.Time{}, core.ErrNoTradingSessions
	}

	idx := 0
	target := dateOnly(earningsDate)
	for i, s := range sessions {
		if s.Equal(target) {
			idx = i
			break
		}
	}

	start = sessions[max(0, idx-lookback)]
	end = sessions[min(len(sessions)-1, idx+lookahead)]
	return start, end, nil
}

// OpenAt returns the session-open timestamp (09:30 Eastern) for a date.
func OpenAt(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, Eastern)
}

// CloseAt returns the session-close timestamp (16:00 Eastern) for a date.
func CloseAt(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), CloseHour, CloseMinute, 0, 0, Eastern)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isHoliday checks full-day NYSE market closures.
func isHoliday(d time.Time) bool {
	for _, h := range holidays(d.Year()) {
		if d.Equal(h) {
			return true
		}
	}
	return false
}

// holidays returns observed NYSE closure dates for a year.
func holidays(year int) []time.Time {
	hs := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.January, time.Monday, 3),  // MLK Day
		nthWeekday(year, time.February, time.Monday, 3), // Presidents' Day
		easter(year).AddDate(0, 0, -2),                  // Good Friday
		lastWeekday(year, time.May, time.Monday),        // Memorial Day
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.September, time.Monday, 1),   // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),  // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)),
	}
	if year >= 2022 {
		hs = append(hs, observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)))
	}
	return hs
}

// observed shifts Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, day time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, (n-1)*7)
}

func lastWeekday(year int, month time.Month, day time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easter computes the Gregorian Easter Sunday for a year.
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
