package publish

import (
	"encoding/json"
	"log/slog"

	"zepp-bridge/internal/entity"
	"zepp-bridge/internal/store"
)

// Home Assistant MQTT discovery config, abbreviated keys per the
// discovery schema.
// https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
type discoveryConfig struct {
	Name              string        `json:"name"`
	UniqID            string        `json:"uniq_id"`
	StateTopic        string        `json:"stat_t"`
	ValueTemplate     string        `json:"val_tpl"`
	AvailabilityTopic string        `json:"avty_t"`
	Unit              string        `json:"unit_of_meas,omitempty"`
	DeviceClass       string        `json:"dev_cla,omitempty"`
	Icon              string        `json:"ic,omitempty"`
	EntityCategory    string        `json:"ent_cat,omitempty"`
	PayloadOn         string        `json:"pl_on,omitempty"`
	PayloadOff        string        `json:"pl_off,omitempty"`
	Dev               *discoveryDev `json:"dev"`
}

type discoveryDev struct {
	IDs          string `json:"ids"`
	Name         string `json:"name"`
	Model        string `json:"mdl"`
	Manufacturer string `json:"mf"`
}

func discoveryDevice(device *store.Device) *discoveryDev {
	return &discoveryDev{
		IDs:          "zeppbridge_" + device.ID.String(),
		Name:         device.Name,
		Model:        "Zepp Smartwatch",
		Manufacturer: "Zepp",
	}
}

// PublishDiscovery announces every declared entity of a device so Home
// Assistant auto-creates the matching sensors. Called on registration
// and on startup for existing devices.
func (p *Publisher) PublishDiscovery(device *store.Device) {
	if p == nil || p.broker == nil {
		return
	}
	dev := discoveryDevice(device)
	stateTopic := stateTopicPrefix + device.Name
	availTopic := availabilityTopicPrefix + device.Name

	announce := func(component, key string, cfg discoveryConfig) {
		topic := p.discoveryPrefix + "/" + component + "/zeppbridge_" + device.ID.String() + "/" + key + "/config"
		b, err := json.Marshal(cfg)
		if err != nil {
			slog.Warn("discovery marshal failed", "device", device.Name, "key", key, "error", err)
			return
		}
		if err := p.broker.PublishRetained(topic, b); err != nil {
			slog.Warn("discovery publish failed", "device", device.Name, "key", key, "error", err)
		}
	}

	base := func(key, name string) discoveryConfig {
		return discoveryConfig{
			Name:              name,
			UniqID:            "zeppbridge_" + device.ID.String() + "_" + key,
			StateTopic:        stateTopic,
			ValueTemplate:     "{{ value_json." + key + " }}",
			AvailabilityTopic: availTopic,
			Dev:               dev,
		}
	}

	for _, def := range entity.SensorDefs() {
		cfg := base(def.Key, def.Name)
		cfg.Unit = def.Unit
		cfg.DeviceClass = def.DeviceClass
		cfg.Icon = def.Icon
		cfg.EntityCategory = def.Category
		announce("sensor", def.Key, cfg)
	}
	for _, def := range entity.TargetSensorDefs() {
		cfg := base(def.Key, def.Name)
		cfg.Unit = def.Unit
		cfg.DeviceClass = def.DeviceClass
		cfg.Icon = def.Icon
		announce("sensor", def.Key, cfg)
	}
	for _, def := range entity.SpecializedSensorDefs() {
		cfg := base(def.Key, def.Name)
		cfg.Unit = def.Unit
		cfg.Icon = def.Icon
		cfg.EntityCategory = def.Category
		announce("sensor", def.Key, cfg)
	}
	for _, def := range entity.BinarySensorDefs() {
		cfg := base(def.Key, def.Name)
		cfg.DeviceClass = def.DeviceClass
		cfg.Icon = def.IconOn
		cfg.PayloadOn = "on"
		cfg.PayloadOff = "off"
		announce("binary_sensor", def.Key, cfg)
	}
	slog.Info("discovery published", "device", device.Name)
}

// RemoveDiscovery retracts the discovery configs with empty retained
// payloads so Home Assistant drops the entities.
func (p *Publisher) RemoveDiscovery(device *store.Device) {
	if p == nil || p.broker == nil {
		return
	}
	retract := func(component, key string) {
		topic := p.discoveryPrefix + "/" + component + "/zeppbridge_" + device.ID.String() + "/" + key + "/config"
		if err := p.broker.PublishRetained(topic, nil); err != nil {
			slog.Debug("discovery retract failed", "device", device.Name, "key", key, "error", err)
		}
	}
	for _, def := range entity.SensorDefs() {
		retract("sensor", def.Key)
	}
	for _, def := range entity.TargetSensorDefs() {
		retract("sensor", def.Key)
	}
	for _, def := range entity.SpecializedSensorDefs() {
		retract("sensor", def.Key)
	}
	for _, def := range entity.BinarySensorDefs() {
		retract("binary_sensor", def.Key)
	}
}
