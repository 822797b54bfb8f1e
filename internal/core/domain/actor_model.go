package domain

import "github.com/berfenger/mikettle2mqtt/pkg/mikettle"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_KETTLE       = "kettle"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_SENSOR       = "sensor"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetParameterValueRequest struct {
	ActorRequestMixIn
	Parameter mikettle.Parameter
}

// GetParameterValueResponse carries the decoded value, nil when the kettle
// had no value, or the transport error in ResponseError.
type GetParameterValueResponse struct {
	ActorResponseMixIn
	Parameter mikettle.Parameter
	Value     any
}

type GetSensorStateRequest struct {
	ActorRequestMixIn
}

type GetSensorStateResponse struct {
	ActorResponseMixIn
	State SensorState
}

type GetSensorStatesRequest struct {
	ActorRequestMixIn
}

type GetSensorStatesResponse struct {
	ActorResponseMixIn
	States []SensorState
}

// PollNowRequest asks a sensor actor to poll immediately.
type PollNowRequest struct {
	ActorRequestMixIn
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
