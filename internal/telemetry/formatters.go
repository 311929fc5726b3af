package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// FormatTimestamp converts a unix timestamp to local time, detecting
// whether the watch sent seconds or milliseconds.
func FormatTimestamp(ts float64) time.Time {
	if ts > 1e12 {
		ts = ts / 1000
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// TimestampParts renders a timestamp into the forms the workout sensors
// expose: RFC3339, date and wall-clock time.
type TimestampParts struct {
	ISO   string
	Date  string
	Clock string
}

func SplitTimestamp(ts float64) (TimestampParts, bool) {
	if ts <= 0 {
		return TimestampParts{}, false
	}
	t := FormatTimestamp(ts)
	return TimestampParts{
		ISO:   t.Format(time.RFC3339),
		Date:  t.Format("2006-01-02"),
		Clock: t.Format("15:04"),
	}, true
}

// SleepClock converts a sleep start/end value (minutes counted from
// midnight of the previous day) into an absolute local time.
func SleepClock(minutes float64, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := midnight.AddDate(0, 0, -1)
	return yesterday.Add(time.Duration(minutes) * time.Minute)
}

// BodyTemperature normalizes the device reading: values above 100 are
// sent scaled by 100 (3650 means 36.50 degrees).
func BodyTemperature(v float64) float64 {
	if v > 100 {
		v = v / 100
	}
	return Round2(v)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundValue applies the default float rounding to values extracted from
// the payload, leaving everything non-numeric untouched.
func RoundValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return Round2(f)
		}
		return n.String()
	case float64:
		return Round2(n)
	default:
		return v
	}
}

// DurationMinutes converts a millisecond duration to whole minutes.
func DurationMinutes(ms float64) int {
	return int(ms) / 60000
}

// BirthDate renders the profile birth object ({year, month, day}) as
// DD/MM/YYYY. Missing components leave the raw value alone.
func BirthDate(birth map[string]any) (string, bool) {
	year, okY := asNumber(birth["year"])
	month, okM := asNumber(birth["month"])
	day, okD := asNumber(birth["day"])
	if !okY || !okM || !okD || year == 0 || month == 0 || day == 0 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%d", int(day), int(month), int(year)), true
}

// YesNo renders feature flags from the device section.
func YesNo(v any) string {
	if b, ok := v.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

// OnOff renders boolean payload values the way the screen sensors do.
func OnOff(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return "On"
		}
		return "Off"
	}
	return v
}
