package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatTimestampDetectsMilliseconds(t *testing.T) {
	sec := float64(1700000000)
	ms := sec * 1000

	if got := FormatTimestamp(sec).Unix(); got != 1700000000 {
		t.Fatalf("seconds input: expected 1700000000, got %d", got)
	}
	if got := FormatTimestamp(ms).Unix(); got != 1700000000 {
		t.Fatalf("milliseconds input: expected 1700000000, got %d", got)
	}
}

func TestSplitTimestampRejectsZero(t *testing.T) {
	if _, ok := SplitTimestamp(0); ok {
		t.Fatalf("expected zero timestamp to be rejected")
	}
	if _, ok := SplitTimestamp(-5); ok {
		t.Fatalf("expected negative timestamp to be rejected")
	}
}

func TestSleepClock(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	// 1380 minutes past yesterday midnight = 23:00 the previous day.
	got := SleepClock(1380, now)
	want := time.Date(2025, 6, 9, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// Values past 1440 roll into today.
	got = SleepClock(1440+7*60, now)
	want = time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBodyTemperature(t *testing.T) {
	if got := BodyTemperature(3657); got != 36.57 {
		t.Fatalf("scaled reading: expected 36.57, got %v", got)
	}
	if got := BodyTemperature(36.57); got != 36.57 {
		t.Fatalf("plain reading: expected 36.57, got %v", got)
	}
}

func TestRoundValue(t *testing.T) {
	if got := RoundValue(json.Number("85")); got != int64(85) {
		t.Fatalf("integer: expected int64 85, got %v (%T)", got, got)
	}
	if got := RoundValue(json.Number("3.14159")); got != 3.14 {
		t.Fatalf("float: expected 3.14, got %v", got)
	}
	if got := RoundValue("text"); got != "text" {
		t.Fatalf("string passthrough: got %v", got)
	}
}

func TestDurationMinutes(t *testing.T) {
	if got := DurationMinutes(1800000); got != 30 {
		t.Fatalf("expected 30 minutes, got %d", got)
	}
	if got := DurationMinutes(59999); got != 0 {
		t.Fatalf("expected 0 minutes for sub-minute duration, got %d", got)
	}
}

func TestBirthDate(t *testing.T) {
	birth := map[string]any{"year": json.Number("1990"), "month": json.Number("3"), "day": json.Number("7")}
	got, ok := BirthDate(birth)
	if !ok || got != "07/03/1990" {
		t.Fatalf("expected 07/03/1990, got %q ok=%v", got, ok)
	}
	if _, ok := BirthDate(map[string]any{"year": json.Number("1990")}); ok {
		t.Fatalf("expected incomplete birth object to be rejected")
	}
}

func TestSportTypeNameStripsCategoryPrefix(t *testing.T) {
	if got := SportTypeName(1); got != "Running" {
		t.Fatalf("expected Running, got %q", got)
	}
	// 21 is category 2 + type 1.
	if got := SportTypeName(21); got != "Running" {
		t.Fatalf("expected prefixed code 21 to map to Running, got %q", got)
	}
	if got := SportTypeName(99); got == "" {
		t.Fatalf("expected fallback label for unknown code")
	}
}

func TestGenderName(t *testing.T) {
	if got := GenderName(0); got != "Female" {
		t.Fatalf("expected Female, got %q", got)
	}
	if got := GenderName(1); got != "Male" {
		t.Fatalf("expected Male, got %q", got)
	}
	if got := GenderName(7); got != "Unknown (7)" {
		t.Fatalf("expected Unknown (7), got %q", got)
	}
}

func TestWearStatusHelpers(t *testing.T) {
	if IsWearing(0) || !IsWearing(1) || !IsWearing(2) {
		t.Fatalf("IsWearing: wrong mapping")
	}
	if IsMoving(0) || IsMoving(1) || !IsMoving(2) {
		t.Fatalf("IsMoving: wrong mapping")
	}
	if IsSleeping(0) || !IsSleeping(1) {
		t.Fatalf("IsSleeping: wrong mapping")
	}
}
