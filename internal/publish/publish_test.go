package publish

import (
	"encoding/json"
	"strings"
	"testing"

	"zepp-bridge/internal/entity"
	"zepp-bridge/internal/store"

	"github.com/google/uuid"
)

type fakeBroker struct {
	messages map[string][]byte
	retained map[string]bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{messages: map[string][]byte{}, retained: map[string]bool{}}
}

func (b *fakeBroker) Publish(topic string, payload []byte) error {
	b.messages[topic] = payload
	return nil
}

func (b *fakeBroker) PublishRetained(topic string, payload []byte) error {
	b.messages[topic] = payload
	b.retained[topic] = true
	return nil
}

func testDevice() *store.Device {
	return &store.Device{ID: uuid.MustParse("11111111-2222-3333-4444-555555555555"), Name: "my watch"}
}

func TestPublishState(t *testing.T) {
	broker := newFakeBroker()
	p := New(broker, "")
	device := testDevice()

	states := []entity.State{
		{Key: "battery", Value: int64(85)},
		{Key: "steps", Value: int64(5000), Attributes: map[string]any{"target": int64(8000)}},
		{Key: "is_wearing", Value: "on"},
	}
	p.PublishState(device, states)

	topic := "zeppbridge/device/state/my watch"
	raw, ok := broker.messages[topic]
	if !ok {
		t.Fatalf("expected message on %s, got topics %v", topic, broker.messages)
	}
	if !broker.retained[topic] {
		t.Fatalf("expected state message to be retained")
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal state doc: %v", err)
	}
	if doc["battery"] != float64(85) {
		t.Fatalf("expected battery 85, got %v", doc["battery"])
	}
	if doc["is_wearing"] != "on" {
		t.Fatalf("expected is_wearing on, got %v", doc["is_wearing"])
	}
	attrs, ok := doc["attributes"].(map[string]any)
	if !ok {
		t.Fatalf("expected attributes map, got %v", doc["attributes"])
	}
	steps, ok := attrs["steps"].(map[string]any)
	if !ok || steps["target"] != float64(8000) {
		t.Fatalf("expected steps target 8000, got %v", attrs["steps"])
	}
}

func TestPublishAvailability(t *testing.T) {
	broker := newFakeBroker()
	p := New(broker, "")
	device := testDevice()

	p.PublishAvailability(device, true)
	topic := "zeppbridge/device/availability/my watch"
	if string(broker.messages[topic]) != "online" {
		t.Fatalf("expected online, got %q", broker.messages[topic])
	}
	p.PublishAvailability(device, false)
	if string(broker.messages[topic]) != "offline" {
		t.Fatalf("expected offline, got %q", broker.messages[topic])
	}
}

func TestPublishDiscovery(t *testing.T) {
	broker := newFakeBroker()
	p := New(broker, "homeassistant")
	device := testDevice()

	p.PublishDiscovery(device)

	batteryTopic := "homeassistant/sensor/zeppbridge_" + device.ID.String() + "/battery/config"
	raw, ok := broker.messages[batteryTopic]
	if !ok {
		t.Fatalf("expected discovery config on %s", batteryTopic)
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg["stat_t"] != "zeppbridge/device/state/my watch" {
		t.Fatalf("unexpected state topic %v", cfg["stat_t"])
	}
	if cfg["val_tpl"] != "{{ value_json.battery }}" {
		t.Fatalf("unexpected value template %v", cfg["val_tpl"])
	}
	if cfg["dev_cla"] != "battery" || cfg["unit_of_meas"] != "%" {
		t.Fatalf("unexpected sensor metadata %v", cfg)
	}
	dev, ok := cfg["dev"].(map[string]any)
	if !ok || dev["ids"] != "zeppbridge_"+device.ID.String() {
		t.Fatalf("unexpected device block %v", cfg["dev"])
	}

	wearingTopic := "homeassistant/binary_sensor/zeppbridge_" + device.ID.String() + "/is_wearing/config"
	raw, ok = broker.messages[wearingTopic]
	if !ok {
		t.Fatalf("expected binary sensor config on %s", wearingTopic)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg["pl_on"] != "on" || cfg["pl_off"] != "off" {
		t.Fatalf("expected on/off payloads, got %v", cfg)
	}

	// Every declared entity got a config.
	want := len(entity.SensorDefs()) + len(entity.TargetSensorDefs()) +
		len(entity.SpecializedSensorDefs()) + len(entity.BinarySensorDefs())
	if len(broker.messages) != want {
		t.Fatalf("expected %d discovery configs, got %d", want, len(broker.messages))
	}
}

func TestRemoveDiscoveryRetractsEveryConfig(t *testing.T) {
	broker := newFakeBroker()
	p := New(broker, "homeassistant")
	device := testDevice()

	p.RemoveDiscovery(device)

	want := len(entity.SensorDefs()) + len(entity.TargetSensorDefs()) +
		len(entity.SpecializedSensorDefs()) + len(entity.BinarySensorDefs())
	if len(broker.messages) != want {
		t.Fatalf("expected %d retractions, got %d", want, len(broker.messages))
	}
	for topic, payload := range broker.messages {
		if !strings.HasSuffix(topic, "/config") {
			t.Fatalf("unexpected topic %s", topic)
		}
		if len(payload) != 0 {
			t.Fatalf("expected empty retained payload on %s, got %q", topic, payload)
		}
	}
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	device := testDevice()
	p.PublishState(device, nil)
	p.PublishAvailability(device, true)
	p.PublishDiscovery(device)
	p.RemoveDiscovery(device)
}
