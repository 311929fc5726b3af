package entity

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"zepp-bridge/internal/telemetry"
)

// State is one projected entity value: a read-only view of the latest
// snapshot, re-derived on every delivery.
type State struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Kind        string         `json:"kind"` // "sensor" or "binary_sensor"
	Value       any            `json:"value"`
	Unit        string         `json:"unit,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	DeviceClass string         `json:"device_class,omitempty"`
	Category    string         `json:"category,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Project derives all available entity states from a snapshot. Sensors
// whose source paths are missing are simply left out.
func Project(p telemetry.Payload, now time.Time) []State {
	if p == nil {
		return nil
	}
	var out []State

	for _, def := range sensorDefs {
		if st, ok := projectSensor(p, def, now); ok {
			out = append(out, st)
		}
	}
	for _, def := range targetSensorDefs {
		if st, ok := projectTargetSensor(p, def); ok {
			out = append(out, st)
		}
	}
	for _, def := range binarySensorDefs {
		if st, ok := projectBinarySensor(p, def); ok {
			out = append(out, st)
		}
	}

	for _, fn := range []func(telemetry.Payload) (State, bool){
		projectBloodOxygen,
		projectPAI,
		projectDeviceInfo,
		projectUserInfo,
		projectWorkoutStatus,
		projectLastWorkout,
		projectWorkoutHistory,
	} {
		if st, ok := fn(p); ok {
			out = append(out, st)
		}
	}

	return out
}

// ByKey indexes projected states for direct lookup in handlers and tests.
func ByKey(states []State) map[string]State {
	m := make(map[string]State, len(states))
	for _, st := range states {
		m[st.Key] = st
	}
	return m
}

func projectSensor(p telemetry.Payload, def SensorDef, now time.Time) (State, bool) {
	raw, found := p.Lookup(def.Path)
	if !found || raw == nil {
		return State{}, false
	}
	var value any
	if def.Format != nil {
		value = def.Format(raw, now)
	} else {
		value = telemetry.RoundValue(raw)
	}
	if value == nil {
		return State{}, false
	}
	return State{
		Key:         def.Key,
		Name:        def.Name,
		Kind:        "sensor",
		Value:       value,
		Unit:        def.Unit,
		Icon:        def.Icon,
		DeviceClass: def.DeviceClass,
		Category:    def.Category,
	}, true
}

func projectTargetSensor(p telemetry.Payload, def TargetSensorDef) (State, bool) {
	raw, found := p.Lookup(def.CurrentPath)
	if !found || raw == nil {
		return State{}, false
	}
	st := State{
		Key:         def.Key,
		Name:        def.Name,
		Kind:        "sensor",
		Value:       telemetry.RoundValue(raw),
		Unit:        def.Unit,
		Icon:        def.Icon,
		DeviceClass: def.DeviceClass,
	}
	if target, ok := p.Lookup(def.TargetPath); ok && target != nil {
		st.Attributes = map[string]any{"target": telemetry.RoundValue(target)}
	}
	return st, true
}

func projectBinarySensor(p telemetry.Payload, def BinarySensorDef) (State, bool) {
	code, ok := p.Int(def.Path)
	if !ok {
		return State{}, false
	}
	value := "off"
	icon := def.IconOff
	if def.IsOn(code) {
		value = "on"
		icon = def.IconOn
	}
	return State{
		Key:         def.Key,
		Name:        def.Name,
		Kind:        "binary_sensor",
		Value:       value,
		Icon:        icon,
		DeviceClass: def.DeviceClass,
	}, true
}

// --- Specialized sensors ---

func projectBloodOxygen(p telemetry.Payload) (State, bool) {
	readings := p.List("blood_oxygen.few_hours")
	if len(readings) == 0 {
		return State{}, false
	}
	last := readings[len(readings)-1]
	spo2, ok := numeric(last["spo2"])
	if !ok {
		return State{}, false
	}
	return State{
		Key:   "blood_oxygen",
		Name:  "Blood Oxygen",
		Kind:  "sensor",
		Value: int(spo2),
		Unit:  "%",
		Icon:  "mdi:water-percent",
	}, true
}

func projectPAI(p telemetry.Payload) (State, bool) {
	week, found := p.Lookup("pai.week")
	if !found || week == nil {
		return State{}, false
	}
	st := State{
		Key:   "pai",
		Name:  "PAI",
		Kind:  "sensor",
		Value: telemetry.RoundValue(week),
		Unit:  "points",
		Icon:  "mdi:chart-bubble",
	}
	if day, ok := p.Lookup("pai.day"); ok && day != nil {
		st.Attributes = map[string]any{"today": telemetry.RoundValue(day)}
	}
	return st, true
}

// attrSpec maps a payload key to an attribute name with an optional
// transform, matching the declarative extraction style of the sensors.
type attrSpec struct {
	target    string
	transform func(any) any
}

func extractAttributes(section map[string]any, specs map[string]attrSpec) map[string]any {
	attrs := map[string]any{}
	for key, spec := range specs {
		v, ok := section[key]
		if !ok {
			continue
		}
		if spec.transform != nil {
			v = spec.transform(v)
		}
		attrs[spec.target] = v
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func yesNo(v any) any { return telemetry.YesNo(v) }

var deviceAttrSpecs = map[string]attrSpec{
	"width":        {target: "width"},
	"height":       {target: "height"},
	"screenShape":  {target: "screen_shape"},
	"keyNumber":    {target: "key_number"},
	"keyType":      {target: "key_type"},
	"deviceSource": {target: "device_source"},
	"deviceColor":  {target: "device_color"},
	"productId":    {target: "product_id"},
	"productVer":   {target: "product_ver"},
	"skuId":        {target: "sku_id"},
	"barHeight":    {target: "bar_height"},
	"pixelFormat":  {target: "pixel_format"},
	"bleAddr":      {target: "ble_addr"},
	"btAddr":       {target: "bt_addr"},
	"wifiAddr":     {target: "wifi_addr"},
	"uuid":         {target: "uuid"},
	"hasNFC":       {target: "has_nfc", transform: yesNo},
	"hasMic":       {target: "has_mic", transform: yesNo},
	"hasCrown":     {target: "has_crown", transform: yesNo},
	"hasBuzzer":    {target: "has_buzzer", transform: yesNo},
	"hasSpeaker":   {target: "has_speaker", transform: yesNo},
}

func projectDeviceInfo(p telemetry.Payload) (State, bool) {
	section := p.Section("device")
	if len(section) == 0 {
		return State{}, false
	}
	name, _ := section["deviceName"].(string)
	if name == "" {
		name = "Unknown Device"
	}
	return State{
		Key:        "device_info",
		Name:       "Device",
		Kind:       "sensor",
		Value:      name,
		Icon:       "mdi:watch-variant",
		Category:   CategoryDiagnostic,
		Attributes: extractAttributes(section, deviceAttrSpecs),
	}, true
}

var userAttrSpecs = map[string]attrSpec{
	"age":    {target: "age"},
	"height": {target: "height"},
	"weight": {target: "weight"},
	"region": {target: "region"},
	"gender": {target: "gender", transform: func(v any) any {
		code, ok := numeric(v)
		if !ok {
			return v
		}
		return telemetry.GenderName(int(code))
	}},
	"birth": {target: "birth_date", transform: func(v any) any {
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		formatted, ok := telemetry.BirthDate(obj)
		if !ok {
			return v
		}
		return formatted
	}},
	"appVersion":  {target: "app_version"},
	"appPlatform": {target: "app_platform"},
	"uuid":        {target: "uuid"},
}

func projectUserInfo(p telemetry.Payload) (State, bool) {
	section := p.Section("user")
	if len(section) == 0 {
		return State{}, false
	}
	name, _ := section["nickName"].(string)
	if name == "" {
		name = "Unknown User"
	}
	return State{
		Key:        "user_info",
		Name:       "User",
		Kind:       "sensor",
		Value:      name,
		Icon:       "mdi:account",
		Category:   CategoryDiagnostic,
		Attributes: extractAttributes(section, userAttrSpecs),
	}, true
}

func projectWorkoutStatus(p telemetry.Payload) (State, bool) {
	load, found := p.Lookup("workout.status.trainingLoad")
	if !found || load == nil {
		return State{}, false
	}
	st := State{
		Key:   "training_load",
		Name:  "Training Load",
		Kind:  "sensor",
		Value: telemetry.RoundValue(load),
		Unit:  "points",
		Icon:  "mdi:dumbbell",
	}
	attrs := map[string]any{}
	if v, ok := p.Lookup("workout.status.vo2Max"); ok && v != nil {
		attrs["vo2_max"] = telemetry.RoundValue(v)
	}
	if v, ok := p.Lookup("workout.status.fullRecoveryTime"); ok && v != nil {
		attrs["full_recovery_time_hours"] = telemetry.RoundValue(v)
	}
	if len(attrs) > 0 {
		st.Attributes = attrs
	}
	return st, true
}

func workoutStartTime(w map[string]any) float64 {
	ts, _ := numeric(w["startTime"])
	return ts
}

func lastWorkout(p telemetry.Payload) (map[string]any, bool) {
	history := p.List("workout.history")
	if len(history) == 0 {
		return nil, false
	}
	best := history[0]
	for _, w := range history[1:] {
		if workoutStartTime(w) > workoutStartTime(best) {
			best = w
		}
	}
	return best, true
}

func projectLastWorkout(p telemetry.Payload) (State, bool) {
	workout, ok := lastWorkout(p)
	if !ok {
		return State{}, false
	}
	sportName := "Unknown"
	attrs := map[string]any{}
	if code, ok := numeric(workout["sportType"]); ok && code != 0 {
		sportName = telemetry.SportTypeName(int(code))
		attrs["sport_type_id"] = int(code)
	}
	if ms, ok := numeric(workout["duration"]); ok {
		attrs["duration_minutes"] = telemetry.DurationMinutes(ms)
	}
	if parts, ok := telemetry.SplitTimestamp(workoutStartTime(workout)); ok {
		attrs["start_time"] = parts.ISO
		attrs["date"] = parts.Date
		attrs["time"] = parts.Clock
	}
	return State{
		Key:        "last_workout",
		Name:       "Last Workout",
		Kind:       "sensor",
		Value:      sportName,
		Icon:       "mdi:run",
		Attributes: attrs,
	}, true
}

const maxRecentWorkouts = 10

func projectWorkoutHistory(p telemetry.Payload) (State, bool) {
	history := p.List("workout.history")
	if len(history) == 0 {
		return State{}, false
	}
	sorted := make([]map[string]any, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return workoutStartTime(sorted[i]) > workoutStartTime(sorted[j])
	})

	recent := make([]string, 0, maxRecentWorkouts)
	for _, w := range sorted {
		if len(recent) == maxRecentWorkouts {
			break
		}
		recent = append(recent, workoutSummary(w))
	}
	return State{
		Key:        "workout_history",
		Name:       "Workout Count",
		Kind:       "sensor",
		Value:      len(history),
		Unit:       "workouts",
		Icon:       "mdi:counter",
		Attributes: map[string]any{"recent_workouts": recent},
	}, true
}

// workoutSummary renders "YYYY-MM-DD HH:MM - Sport Name (XX min)".
func workoutSummary(w map[string]any) string {
	sportName := "Unknown"
	if code, ok := numeric(w["sportType"]); ok && code != 0 {
		sportName = telemetry.SportTypeName(int(code))
	}
	start := "Unknown"
	if parts, ok := telemetry.SplitTimestamp(workoutStartTime(w)); ok {
		start = parts.Date + " " + parts.Clock
	}
	minutes := 0
	if ms, ok := numeric(w["duration"]); ok {
		minutes = telemetry.DurationMinutes(ms)
	}
	return start + " - " + sportName + " (" + strconv.Itoa(minutes) + " min)"
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
