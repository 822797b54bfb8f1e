package service

import (
	"fmt"
	"reflect"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/core/events"
	"github.com/berfenger/mikettle2mqtt/internal/core/port"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"go.uber.org/zap"
)

// SensorEntity is the state of one polled kettle parameter. A nil state
// means unknown.
type SensorEntity struct {
	id          string
	name        string
	unit        string
	icon        string
	forceUpdate bool
	decimals    uint
	parameter   mikettle.Parameter
	state       any
	logger      *zap.Logger
}

func NewSensorEntity(sensor domain.GenericSensor, parameter mikettle.Parameter, logger *zap.Logger) *SensorEntity {
	st, _ := domain.LookupSensorType(parameter)
	return &SensorEntity{
		id:          sensor.Id,
		name:        sensor.Name,
		unit:        sensor.UnitOfMeasurement,
		icon:        sensor.Icon,
		forceUpdate: sensor.ForceUpdate,
		decimals:    st.Decimals,
		parameter:   parameter,
		logger:      logger,
	}
}

func (e *SensorEntity) Id() string {
	return e.id
}

func (e *SensorEntity) Name() string {
	return e.name
}

func (e *SensorEntity) Unit() string {
	return e.unit
}

func (e *SensorEntity) Icon() string {
	return e.icon
}

func (e *SensorEntity) ForceUpdate() bool {
	return e.forceUpdate
}

func (e *SensorEntity) Parameter() mikettle.Parameter {
	return e.parameter
}

func (e *SensorEntity) State() any {
	return e.state
}

func (e *SensorEntity) Properties() domain.SensorState {
	return domain.SensorState{
		Id:          e.id,
		Name:        e.name,
		State:       e.state,
		Unit:        e.unit,
		Icon:        e.icon,
		ForceUpdate: e.forceUpdate,
	}
}

// Update polls the kettle for this entity's parameter and applies the result.
func (e *SensorEntity) Update(kettle mikettle.Kettle) port.PollResult {
	e.logger.Debug("Polling data", zap.String("name", e.name))
	value, err := QueryParameter(kettle, e.parameter)
	return e.Apply(value, err)
}

// Apply stores the outcome of a poll. A transport error keeps the previous
// state; a successful call without a value resets it to unknown.
func (e *SensorEntity) Apply(value any, err error) port.PollResult {
	if err != nil {
		e.logger.Info("Polling error", zap.String("name", e.name), zap.Error(err))
		return port.PollResult{Outcome: port.POLL_FAILED}
	}

	previous := e.state
	if value == nil {
		e.logger.Info("Did not receive any data from Mi kettle", zap.String("name", e.name))
		e.state = nil
		changed := previous != nil
		return port.PollResult{
			Outcome: port.POLL_NO_DATA,
			Changed: changed,
			Publish: changed || e.forceUpdate,
		}
	}

	e.logger.Debug("Polled value", zap.String("name", e.name), zap.Any("value", value))
	e.state = value
	changed := !reflect.DeepEqual(previous, value)
	return port.PollResult{
		Outcome: port.POLL_UPDATED,
		Changed: changed,
		Publish: changed || e.forceUpdate,
	}
}

func (e *SensorEntity) UpdateEvent() domain.SensorUpdateEvent {
	return events.SensorStateToUpdateEvent(e.id, e.state, e.decimals)
}

// QueryParameter calls the driver and turns a panic at the call boundary
// into an error.
func QueryParameter(kettle mikettle.Kettle, p mikettle.Parameter) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("kettle driver panic: %w", rerr)
			} else {
				err = fmt.Errorf("kettle driver panic: %v", r)
			}
		}
	}()
	return kettle.ParameterValue(p)
}

// ensure interface compliance
var _ port.PollingEntity = (*SensorEntity)(nil)
