package actor

import (
	"sync"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
)

// MQTTRecorder keeps what a test MQTT actor was asked to publish.
type MQTTRecorder struct {
	mu        sync.Mutex
	messages  map[string][]string
	discovery []domain.GenericSensor
}

func NewMQTTRecorder() *MQTTRecorder {
	return &MQTTRecorder{
		messages: make(map[string][]string),
	}
}

func (r *MQTTRecorder) record(topic, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[topic] = append(r.messages[topic], payload)
}

func (r *MQTTRecorder) recordDiscovery(sensors []domain.GenericSensor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovery = append(r.discovery, sensors...)
}

// Messages returns every payload published on topic, oldest first.
func (r *MQTTRecorder) Messages(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages[topic]...)
}

// Last returns the most recent payload on topic.
func (r *MQTTRecorder) Last(topic string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[topic]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[len(msgs)-1], true
}

func (r *MQTTRecorder) Discovery() []domain.GenericSensor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GenericSensor(nil), r.discovery...)
}
