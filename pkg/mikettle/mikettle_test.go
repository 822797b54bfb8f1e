package mikettle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParameter(t *testing.T) {

	assert := assert.New(t)

	p, err := ParseParameter("current temperature")
	assert.NoError(err)
	assert.Equal(MI_CURRENT_TEMPERATURE, p, "driver identifier")

	p, err = ParseParameter("Keep_Warm_Time")
	assert.NoError(err)
	assert.Equal(MI_KW_TIME, p, "snake case identifier")

	_, err = ParseParameter("humidity")
	assert.ErrorIs(err, ErrUnknownParameter)
}

func TestAllParametersIsACopy(t *testing.T) {

	assert := assert.New(t)

	params := AllParameters()
	assert.Len(params, 6)
	params[0] = "tampered"
	assert.Equal(MI_ACTION, AllParameters()[0])
}

func TestParameterKey(t *testing.T) {
	assert.Equal(t, "set_temperature", MI_SET_TEMPERATURE.Key())
	assert.Equal(t, "mode", MI_MODE.Key())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("does_not_exist", "AA:BB:CC:DD:EE:FF", DefaultProductId)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRegisterAndOpen(t *testing.T) {

	require := require.New(t)

	kettle := NewTestKettle().SetValue(MI_MODE, MODE_BOIL)
	var gotMac string
	var gotProduct int
	Register("test_register_and_open", func(mac string, productId int) (Kettle, error) {
		gotMac = mac
		gotProduct = productId
		return kettle, nil
	})

	require.True(HasDriver("test_register_and_open"))
	require.Contains(Drivers(), DRIVER_SIMULATED)

	k, err := Open("test_register_and_open", "AA:BB:CC:DD:EE:FF", 131)
	require.NoError(err)
	require.Equal("AA:BB:CC:DD:EE:FF", gotMac)
	require.Equal(131, gotProduct)

	v, err := k.ParameterValue(MI_MODE)
	require.NoError(err)
	require.Equal(MODE_BOIL, v)

	require.Panics(func() {
		Register("test_register_and_open", func(string, int) (Kettle, error) { return nil, nil })
	}, "duplicated driver name")
}

func TestSimulatedKettleRejectsInvalidMac(t *testing.T) {
	_, err := NewSimulatedKettle("not-a-mac", DefaultProductId, time.Now)
	assert.Error(t, err)

	_, err = NewSimulatedKettle("AA:BB:CC:DD:EE:FF", 0, time.Now)
	assert.Error(t, err)
}

func TestSimulatedKettleCycle(t *testing.T) {

	assert := assert.New(t)

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := base
	k, err := NewSimulatedKettle("AA:BB:CC:DD:EE:FF", DefaultProductId, func() time.Time { return now })
	if err != nil {
		t.Error(err)
		return
	}

	// heating
	v, _ := k.ParameterValue(MI_ACTION)
	assert.Equal(ACTION_HEATING, v)
	v, _ = k.ParameterValue(MI_CURRENT_TEMPERATURE)
	assert.Equal(simRoomTemperature, v)
	v, _ = k.ParameterValue(MI_KW_TIME)
	assert.Nil(v, "no keep warm time while boiling")

	// keeping warm
	now = base.Add(simHeatingPhase + simCoolingPhase + 90*time.Second)
	v, _ = k.ParameterValue(MI_ACTION)
	assert.Equal(ACTION_KEEPING_WARM, v)
	v, _ = k.ParameterValue(MI_KW_TIME)
	assert.Equal(90, v)
	v, _ = k.ParameterValue(MI_CURRENT_TEMPERATURE)
	assert.Equal(simSetTemperature, v)

	// idle
	now = base.Add(simHeatingPhase + simCoolingPhase + simKeepWarmPhase + time.Second)
	v, _ = k.ParameterValue(MI_MODE)
	assert.Equal(MODE_NONE, v)

	_, err = k.ParameterValue("bogus")
	assert.ErrorIs(err, ErrUnknownParameter)
}

func TestTestKettle(t *testing.T) {

	assert := assert.New(t)

	k := NewTestKettle()
	v, err := k.ParameterValue(MI_ACTION)
	assert.Nil(v)
	assert.NoError(err)

	ioErr := errors.New("le connection failed")
	k.SetValue(MI_ACTION, ACTION_IDLE).SetError(MI_MODE, ioErr)
	v, err = k.ParameterValue(MI_ACTION)
	assert.Equal(ACTION_IDLE, v)
	assert.NoError(err)
	_, err = k.ParameterValue(MI_MODE)
	assert.ErrorIs(err, ioErr)

	k.SetPanic(MI_KW_TYPE, "boom")
	assert.Panics(func() { _, _ = k.ParameterValue(MI_KW_TYPE) })

	assert.Equal(2, k.Calls(MI_ACTION))
	assert.Equal(1, k.Calls(MI_MODE))
}
