package publish

import (
	"encoding/json"
	"log/slog"

	"zepp-bridge/internal/entity"
	"zepp-bridge/internal/store"
)

const (
	stateTopicPrefix        = "zeppbridge/device/state/"
	availabilityTopicPrefix = "zeppbridge/device/availability/"
)

// Broker is the slice of the MQTT client the publisher needs; nil-able
// in tests and when no broker is configured.
type Broker interface {
	Publish(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// Publisher mirrors projected entity states onto the MQTT bus and
// announces them to Home Assistant via MQTT discovery.
type Publisher struct {
	broker          Broker
	discoveryPrefix string
}

func New(broker Broker, discoveryPrefix string) *Publisher {
	if discoveryPrefix == "" {
		discoveryPrefix = "homeassistant"
	}
	return &Publisher{broker: broker, discoveryPrefix: discoveryPrefix}
}

// stateDocument is the retained per-device state message: flat entity
// values keyed by entity key, attributes nested under "attributes".
func stateDocument(states []entity.State) map[string]any {
	doc := make(map[string]any, len(states)+1)
	attrs := map[string]any{}
	for _, st := range states {
		doc[st.Key] = st.Value
		if len(st.Attributes) > 0 {
			attrs[st.Key] = st.Attributes
		}
	}
	if len(attrs) > 0 {
		doc["attributes"] = attrs
	}
	return doc
}

// PublishState publishes the retained state document for a device.
// Failures are logged and swallowed; the webhook response never depends
// on the bus.
func (p *Publisher) PublishState(device *store.Device, states []entity.State) {
	if p == nil || p.broker == nil {
		return
	}
	doc := stateDocument(states)
	b, err := json.Marshal(doc)
	if err != nil {
		slog.Warn("state document marshal failed", "device", device.Name, "error", err)
		return
	}
	if err := p.broker.PublishRetained(stateTopicPrefix+device.Name, b); err != nil {
		slog.Warn("state publish failed", "device", device.Name, "error", err)
	}
}

// PublishAvailability marks the device online/offline for subscribers.
func (p *Publisher) PublishAvailability(device *store.Device, online bool) {
	if p == nil || p.broker == nil {
		return
	}
	payload := "offline"
	if online {
		payload = "online"
	}
	if err := p.broker.PublishRetained(availabilityTopicPrefix+device.Name, []byte(payload)); err != nil {
		slog.Warn("availability publish failed", "device", device.Name, "error", err)
	}
}
