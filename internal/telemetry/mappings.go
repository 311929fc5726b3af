package telemetry

import "fmt"

// Wear status codes reported by the watch.
const (
	WearStatusNotWearing = 0
	WearStatusWearing    = 1
	WearStatusInMotion   = 2
)

// Sleep status codes.
const (
	SleepStatusAwake    = 0
	SleepStatusSleeping = 1
)

var genderNames = map[int]string{
	0: "Female",
	1: "Male",
}

// GenderName maps the profile gender code to a readable label.
func GenderName(code int) string {
	if name, ok := genderNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// Sport type codes as sent by the watch, after the category prefix digit
// has been stripped (see SportTypeName).
var sportTypeNames = map[int]string{
	1:  "Running",
	2:  "Walking",
	3:  "Cycling",
	4:  "Treadmill",
	5:  "Freestyle",
	6:  "Pool Swimming",
	7:  "Open Water Swimming",
	8:  "Indoor Cycling",
	9:  "Elliptical",
	10: "Mountaineering",
	11: "Trail Running",
	12: "Skiing",
	13: "Snowboarding",
	14: "Rowing Machine",
	15: "Jump Rope",
	16: "Strength Training",
	17: "Yoga",
	18: "HIIT",
	19: "Core Training",
	20: "Stretching",
	21: "Stair Climbing",
	22: "Dance",
	23: "Indoor Walking",
	24: "Hiking",
}

// SportTypeName maps a raw workout sportType code to a readable name.
// Multi-digit codes carry a category prefix as the first digit; it is
// dropped before the lookup.
func SportTypeName(code int) string {
	if code >= 10 {
		digits := fmt.Sprintf("%d", code)
		var stripped int
		_, err := fmt.Sscanf(digits[1:], "%d", &stripped)
		if err == nil {
			code = stripped
		}
	}
	if name, ok := sportTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// IsWearing reports whether the wear status code means the watch is on
// the wrist (stationary or in motion).
func IsWearing(code int) bool {
	return code == WearStatusWearing || code == WearStatusInMotion
}

// IsMoving reports whether the wear status code means the wearer is in
// motion.
func IsMoving(code int) bool {
	return code == WearStatusInMotion
}

// IsSleeping reports whether the sleep status code means asleep.
func IsSleeping(code int) bool {
	return code == SleepStatusSleeping
}
