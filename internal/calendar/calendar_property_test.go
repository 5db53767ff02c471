package calendar

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Timestamps between 2001 and 2033, in milliseconds.
var tsGen = gen.Int64Range(1000000000000, 2000000000000)

func TestProperty_DecomposeMatchesTimePackage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("year/month/day/hour round-trip to the same UTC calendar date", prop.ForAll(
		func(ts int64) bool {
			rec := Decompose(ts, ISO)
			ref := time.UnixMilli(ts).UTC()
			rebuilt := time.Date(rec.Year, time.Month(rec.Month), rec.Day, rec.Hour, ref.Minute(), ref.Second(), ref.Nanosecond(), time.UTC)
			return rebuilt.Equal(ref) && rec.StartTime.Equal(ref)
		},
		tsGen,
	))

	properties.Property("decompose is deterministic", prop.ForAll(
		func(ts int64) bool {
			return Decompose(ts, ISO) == Decompose(ts, ISO) && Decompose(ts, US) == Decompose(ts, US)
		},
		tsGen,
	))

	properties.TestingRun(t)
}

func TestProperty_FieldRanges(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("every field stays in range under both conventions", prop.ForAll(
		func(ts int64) bool {
			for _, conv := range []WeekConvention{ISO, US} {
				rec := Decompose(ts, conv)
				if rec.Hour < 0 || rec.Hour > 23 ||
					rec.Day < 1 || rec.Day > 31 ||
					rec.Month < 1 || rec.Month > 12 ||
					rec.Weekday < 0 || rec.Weekday > 6 ||
					rec.Week < 0 || rec.Week > 53 {
					return false
				}
			}
			return true
		},
		tsGen,
	))

	properties.Property("US weekday is ISO weekday shifted by one day", prop.ForAll(
		func(ts int64) bool {
			iso := Decompose(ts, ISO).Weekday
			us := Decompose(ts, US).Weekday
			return us == (iso+1)%7
		},
		tsGen,
	))

	properties.TestingRun(t)
}
