// Package calendar decomposes play timestamps into time-dimension columns.
//
// The week-related columns depend on a calendar convention that is always
// passed explicitly:
//
//   - ISO: weekday 0 is Monday and 6 is Sunday; week numbers follow ISO 8601
//     (week 1 contains the year's first Thursday, so early January days may
//     belong to week 52 or 53 of the previous year).
//   - US: weekday 0 is Sunday and 6 is Saturday; week 1 starts on the year's
//     first Sunday and any days before it are week 0.
//
// All decomposition happens in UTC.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// WeekConvention selects the first day of the week and the week-numbering rule.
type WeekConvention int

const (
	ISO WeekConvention = iota
	US
)

// String returns the configuration name of the convention.
func (c WeekConvention) String() string {
	switch c {
	case ISO:
		return "iso"
	case US:
		return "us"
	default:
		return fmt.Sprintf("WeekConvention(%d)", int(c))
	}
}

// FirstDay returns the weekday numbered 0 under the convention.
func (c WeekConvention) FirstDay() time.Weekday {
	if c == US {
		return time.Sunday
	}
	return time.Monday
}

// ParseWeekConvention maps a configuration value to a WeekConvention.
// The empty string selects ISO.
func ParseWeekConvention(s string) (WeekConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso", "iso8601":
		return ISO, nil
	case "us", "sunday":
		return US, nil
	default:
		return ISO, fmt.Errorf("unknown week convention %q (expected iso or us): %w", s, sparkify.ErrInvalidConfig)
	}
}

// FromMillis converts milliseconds since the Unix epoch to a UTC instant.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Decompose splits a millisecond timestamp into time-dimension columns.
func Decompose(tsMillis int64, conv WeekConvention) sparkify.TimeRecord {
	t := FromMillis(tsMillis)
	return sparkify.TimeRecord{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      Week(t, conv),
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   Weekday(t, conv),
	}
}

// Weekday numbers t's day of week from 0, starting at conv.FirstDay().
func Weekday(t time.Time, conv WeekConvention) int {
	return (int(t.Weekday()) - int(conv.FirstDay()) + 7) % 7
}

// Week returns t's week number under conv.
func Week(t time.Time, conv WeekConvention) int {
	if conv == US {
		// Equivalent to strftime %U.
		return (t.YearDay() + 6 - int(t.Weekday())) / 7
	}
	_, week := t.ISOWeek()
	return week
}
