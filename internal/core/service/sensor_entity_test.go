package service

import (
	"errors"
	"testing"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/core/port"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEntity(p mikettle.Parameter, forceUpdate bool) *SensorEntity {
	dev := domain.KettleDevice("AA:BB:CC:DD:EE:FF", mikettle.DefaultProductId, "")
	sensor := domain.KettleSensors(dev, "Mi Kettle", []mikettle.Parameter{p}, forceUpdate)[0]
	return NewSensorEntity(sensor, p, zap.NewNop())
}

func TestInitialStateIsUnknown(t *testing.T) {

	assert := assert.New(t)

	e := newEntity(mikettle.MI_CURRENT_TEMPERATURE, false)
	assert.Nil(e.State())
	assert.Equal("Mi Kettle Current temperature", e.Name())
	assert.Equal(domain.UNIT_CELSIUS, e.Unit())
	assert.Equal(domain.ICON_THERMOMETER, e.Icon())
	assert.False(e.ForceUpdate())
}

func TestUpdateStoresValue(t *testing.T) {

	require := require.New(t)

	kettle := mikettle.NewTestKettle().SetValue(mikettle.MI_CURRENT_TEMPERATURE, 96)
	e := newEntity(mikettle.MI_CURRENT_TEMPERATURE, false)

	r := e.Update(kettle)
	require.Equal(port.POLL_UPDATED, r.Outcome)
	require.True(r.Changed)
	require.True(r.Publish)
	require.Equal(96, e.State())

	// same value again: no publish without force update
	r = e.Update(kettle)
	require.Equal(port.POLL_UPDATED, r.Outcome)
	require.False(r.Changed)
	require.False(r.Publish)
}

func TestForceUpdatePublishesUnchanged(t *testing.T) {

	require := require.New(t)

	kettle := mikettle.NewTestKettle().SetValue(mikettle.MI_MODE, "boil")
	e := newEntity(mikettle.MI_MODE, true)

	e.Update(kettle)
	r := e.Update(kettle)
	require.False(r.Changed)
	require.True(r.Publish, "force update publishes every poll")
}

func TestTransportErrorKeepsState(t *testing.T) {

	require := require.New(t)

	kettle := mikettle.NewTestKettle().SetValue(mikettle.MI_MODE, "boil")
	e := newEntity(mikettle.MI_MODE, true)
	e.Update(kettle)

	kettle.SetError(mikettle.MI_MODE, errors.New("le connection timeout"))
	r := e.Update(kettle)
	require.Equal(port.POLL_FAILED, r.Outcome)
	require.False(r.Publish, "failures never publish, even with force update")
	require.Equal("boil", e.State(), "previous value preserved")
}

func TestDriverPanicIsTransportError(t *testing.T) {

	require := require.New(t)

	kettle := mikettle.NewTestKettle().SetValue(mikettle.MI_ACTION, "heating")
	e := newEntity(mikettle.MI_ACTION, false)
	e.Update(kettle)

	kettle.SetPanic(mikettle.MI_ACTION, errors.New("adapter gone"))
	require.NotPanics(func() {
		r := e.Update(kettle)
		require.Equal(port.POLL_FAILED, r.Outcome)
	})
	require.Equal("heating", e.State())
}

func TestNoDataResetsState(t *testing.T) {

	require := require.New(t)

	kettle := mikettle.NewTestKettle().SetValue(mikettle.MI_KW_TIME, 1800)
	e := newEntity(mikettle.MI_KW_TIME, false)
	e.Update(kettle)
	require.Equal(1800, e.State())

	kettle.Clear(mikettle.MI_KW_TIME)
	r := e.Update(kettle)
	require.Equal(port.POLL_NO_DATA, r.Outcome)
	require.True(r.Changed)
	require.True(r.Publish)
	require.Nil(e.State())

	// still no data: nothing new to publish
	r = e.Update(kettle)
	require.False(r.Publish)
}

func TestUpdateEventAndProperties(t *testing.T) {

	assert := assert.New(t)

	e := newEntity(mikettle.MI_SET_TEMPERATURE, false)
	_, ok := e.UpdateEvent().(domain.UnknownSensorUpdateEvent)
	assert.True(ok)

	e.Apply(70, nil)
	ev, ok := e.UpdateEvent().(domain.FloatSensorUpdateEvent)
	assert.True(ok)
	assert.Equal(70.0, ev.Value)
	assert.Equal(e.Id(), ev.SensorId())

	props := e.Properties()
	assert.Equal("Mi Kettle Set temperature", props.Name)
	assert.Equal(70, props.State)
	assert.Equal(domain.ICON_THERMOMETER_LINES, props.Icon)
}

func TestQueryParameterRecoversNonErrorPanic(t *testing.T) {
	kettle := mikettle.NewTestKettle().SetPanic(mikettle.MI_MODE, "boom")
	v, err := QueryParameter(kettle, mikettle.MI_MODE)
	assert.Nil(t, v)
	assert.ErrorContains(t, err, "boom")
}
