package entity

import (
	"time"

	"zepp-bridge/internal/telemetry"
)

// Entity categories mirrored from the home-automation side.
const (
	CategoryDiagnostic = "diagnostic"
)

// SensorDef declares a sensor fed by a single dot path in the payload.
// Absent paths make the sensor unavailable for that snapshot; they are
// never an error.
type SensorDef struct {
	Path        string
	Key         string
	Name        string
	Unit        string
	Icon        string
	DeviceClass string
	Category    string
	// Format transforms the raw value; nil applies default float
	// rounding. Returning nil drops the sensor for this snapshot.
	Format func(v any, now time.Time) any
}

// TargetSensorDef declares a sensor with a current value and a daily
// goal exposed as the "target" attribute.
type TargetSensorDef struct {
	CurrentPath string
	TargetPath  string
	Key         string
	Name        string
	Unit        string
	Icon        string
	DeviceClass string
}

// BinarySensorDef declares an on/off sensor derived from an enumerated
// integer code.
type BinarySensorDef struct {
	Path        string
	Key         string
	Name        string
	DeviceClass string
	IconOn      string
	IconOff     string
	IsOn        func(code int) bool
}

func formatBool(v any, _ time.Time) any {
	return telemetry.OnOff(v)
}

func formatBodyTemp(v any, _ time.Time) any {
	f, ok := numeric(v)
	if !ok {
		return v
	}
	return telemetry.BodyTemperature(f)
}

func formatSleepTime(v any, now time.Time) any {
	f, ok := numeric(v)
	if !ok {
		return nil
	}
	return telemetry.SleepClock(f, now).Format(time.RFC3339)
}

var sensorDefs = []SensorDef{
	// Diagnostics
	{Path: "record_time", Key: "record_time", Name: "Record Time", Icon: "mdi:calendar-clock", Category: CategoryDiagnostic},
	{Path: "screen.status", Key: "screen_status", Name: "Screen Status", Icon: "mdi:monitor", Category: CategoryDiagnostic},
	{Path: "screen.aod_mode", Key: "screen_aod_mode", Name: "Screen AOD Mode", Icon: "mdi:monitor-eye", Category: CategoryDiagnostic, Format: formatBool},
	{Path: "screen.light", Key: "screen_light", Name: "Screen Brightness", Unit: "%", Icon: "mdi:brightness-6", Category: CategoryDiagnostic},

	// Battery
	{Path: "battery.current", Key: "battery", Name: "Battery", Unit: "%", Icon: "mdi:battery", DeviceClass: "battery"},

	// Health
	{Path: "body_temperature.current.value", Key: "body_temperature", Name: "Body Temperature", Unit: "°C", Icon: "mdi:thermometer", DeviceClass: "temperature", Format: formatBodyTemp},
	{Path: "stress.current.value", Key: "stress_value", Name: "Stress", Unit: "points", Icon: "mdi:emoticon-sad-outline"},

	// Activity
	{Path: "distance.current", Key: "distance", Name: "Distance", Unit: "m", Icon: "mdi:map-marker-distance", DeviceClass: "distance"},

	// Heart rate
	{Path: "heart_rate.last", Key: "heart_rate_last", Name: "Heart Rate", Unit: "bpm", Icon: "mdi:heart-pulse"},
	{Path: "heart_rate.resting", Key: "heart_rate_resting", Name: "Heart Rate Resting", Unit: "bpm", Icon: "mdi:heart"},
	{Path: "heart_rate.summary.maximum.hr_value", Key: "heart_rate_max", Name: "Heart Rate Max", Unit: "bpm", Icon: "mdi:heart-flash"},

	// Sleep
	{Path: "sleep.info.score", Key: "sleep_score", Name: "Sleep Score", Unit: "points", Icon: "mdi:sleep"},
	{Path: "sleep.info.startTime", Key: "sleep_start", Name: "Sleep Start", Icon: "mdi:clock-start", DeviceClass: "timestamp", Format: formatSleepTime},
	{Path: "sleep.info.endTime", Key: "sleep_end", Name: "Sleep End", Icon: "mdi:clock-end", DeviceClass: "timestamp", Format: formatSleepTime},
	{Path: "sleep.info.deepTime", Key: "sleep_deep", Name: "Sleep Deep", Unit: "min", Icon: "mdi:weather-night", DeviceClass: "duration"},
	{Path: "sleep.info.totalTime", Key: "sleep_total", Name: "Sleep Total", Unit: "min", Icon: "mdi:clock-outline", DeviceClass: "duration"},
}

var targetSensorDefs = []TargetSensorDef{
	{CurrentPath: "steps.current", TargetPath: "steps.target", Key: "steps", Name: "Steps", Unit: "steps", Icon: "mdi:walk"},
	{CurrentPath: "calorie.current", TargetPath: "calorie.target", Key: "calories", Name: "Calories", Unit: "kcal", Icon: "mdi:fire", DeviceClass: "energy"},
	{CurrentPath: "fat_burning.current", TargetPath: "fat_burning.target", Key: "fat_burning", Name: "Fat Burning", Unit: "min", Icon: "mdi:run-fast", DeviceClass: "duration"},
	{CurrentPath: "stands.current", TargetPath: "stands.target", Key: "stands", Name: "Stands", Unit: "times", Icon: "mdi:human-handsup"},
}

var binarySensorDefs = []BinarySensorDef{
	{Path: "is_wearing", Key: "is_wearing", Name: "Is Wearing", DeviceClass: "occupancy", IconOn: "mdi:watch", IconOff: "mdi:watch-off", IsOn: telemetry.IsWearing},
	{Path: "is_wearing", Key: "is_moving", Name: "Is Moving", DeviceClass: "motion", IconOn: "mdi:run", IconOff: "mdi:human-handsdown", IsOn: telemetry.IsMoving},
	{Path: "sleep.status", Key: "is_sleeping", Name: "Is Sleeping", IconOn: "mdi:sleep", IconOff: "mdi:sleep-off", IsOn: telemetry.IsSleeping},
}

// SpecializedDef describes sensors computed by dedicated projection
// code rather than a single path: enough metadata for discovery.
type SpecializedDef struct {
	Key      string
	Name     string
	Unit     string
	Icon     string
	Category string
}

var specializedDefs = []SpecializedDef{
	{Key: "blood_oxygen", Name: "Blood Oxygen", Unit: "%", Icon: "mdi:water-percent"},
	{Key: "pai", Name: "PAI", Unit: "points", Icon: "mdi:chart-bubble"},
	{Key: "device_info", Name: "Device", Icon: "mdi:watch-variant", Category: CategoryDiagnostic},
	{Key: "user_info", Name: "User", Icon: "mdi:account", Category: CategoryDiagnostic},
	{Key: "training_load", Name: "Training Load", Unit: "points", Icon: "mdi:dumbbell"},
	{Key: "last_workout", Name: "Last Workout", Icon: "mdi:run"},
	{Key: "workout_history", Name: "Workout Count", Unit: "workouts", Icon: "mdi:counter"},
}

// SensorDefs exposes the declarative sensor table (used by MQTT
// discovery publishing).
func SensorDefs() []SensorDef { return sensorDefs }

// TargetSensorDefs exposes the goal-backed sensor table.
func TargetSensorDefs() []TargetSensorDef { return targetSensorDefs }

// BinarySensorDefs exposes the binary sensor table.
func BinarySensorDefs() []BinarySensorDef { return binarySensorDefs }

// SpecializedSensorDefs exposes metadata for the computed sensors.
func SpecializedSensorDefs() []SpecializedDef { return specializedDefs }
