package port

import (
	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"
)

type PollOutcome int

const (
	POLL_UPDATED PollOutcome = iota
	POLL_NO_DATA
	POLL_FAILED
)

func (o PollOutcome) String() string {
	switch o {
	case POLL_UPDATED:
		return "updated"
	case POLL_NO_DATA:
		return "no_data"
	case POLL_FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

type PollResult struct {
	Outcome PollOutcome
	Changed bool
	Publish bool
}

// PollingEntity holds the state of one (kettle, parameter) sensor.
type PollingEntity interface {
	Parameter() mikettle.Parameter
	Update(kettle mikettle.Kettle) PollResult
	Apply(value any, err error) PollResult
	State() any
	Properties() domain.SensorState
	UpdateEvent() domain.SensorUpdateEvent
}
