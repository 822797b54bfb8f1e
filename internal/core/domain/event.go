package domain

import "fmt"

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

// UnknownSensorUpdateEvent clears a sensor state.
type UnknownSensorUpdateEvent struct {
	SensorUpdateEventMixIn
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// HostStartedEvent is published on the event stream once the bridge is
// connected to the broker and whenever Home Assistant comes back online.
type HostStartedEvent struct {
	Reason string
}

const (
	HOST_STARTED_REASON_CONNECTED = "connected"
	HOST_STARTED_REASON_HA_ONLINE = "homeassistant_online"
)
