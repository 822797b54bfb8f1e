package mikettle

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	DRIVER_SIMULATED = "simulated"

	ACTION_IDLE         = "idle"
	ACTION_HEATING      = "heating"
	ACTION_COOLING      = "cooling"
	ACTION_KEEPING_WARM = "keeping warm"

	MODE_NONE      = "none"
	MODE_BOIL      = "boil"
	MODE_KEEP_WARM = "keep warm"

	KW_TYPE_WARM_UP   = "warm up"
	KW_TYPE_COOL_DOWN = "cool down"
)

const (
	simRoomTemperature = 22
	simSetTemperature  = 65
	simBoilTemperature = 100
	simHeatingPhase    = 4 * time.Minute
	simCoolingPhase    = 2 * time.Minute
	simKeepWarmPhase   = 10 * time.Minute
	simIdlePhase       = 4 * time.Minute
)

func init() {
	Register(DRIVER_SIMULATED, func(mac string, productId int) (Kettle, error) {
		return NewSimulatedKettle(mac, productId, time.Now)
	})
}

// SimulatedKettle models a kettle that boils, cools down to the keep warm
// temperature, keeps warm for a while and then idles, in an endless cycle
// anchored at the first poll.
type SimulatedKettle struct {
	mac       string
	productId int
	now       func() time.Time

	mu    sync.Mutex
	start time.Time
}

type simulatedStatus struct {
	action      string
	mode        string
	setTemp     int
	currentTemp int
	kwType      string
	kwTime      int
}

func NewSimulatedKettle(mac string, productId int, now func() time.Time) (*SimulatedKettle, error) {
	if _, err := net.ParseMAC(mac); err != nil {
		return nil, fmt.Errorf("invalid mac: %w", err)
	}
	if productId <= 0 {
		return nil, fmt.Errorf("invalid product id %d", productId)
	}
	return &SimulatedKettle{
		mac:       mac,
		productId: productId,
		now:       now,
	}, nil
}

func (k *SimulatedKettle) ParameterValue(p Parameter) (any, error) {
	st := k.status()
	switch p {
	case MI_ACTION:
		return st.action, nil
	case MI_MODE:
		return st.mode, nil
	case MI_SET_TEMPERATURE:
		return st.setTemp, nil
	case MI_CURRENT_TEMPERATURE:
		return st.currentTemp, nil
	case MI_KW_TYPE:
		return st.kwType, nil
	case MI_KW_TIME:
		// only meaningful while keeping warm
		if st.mode != MODE_KEEP_WARM {
			return nil, nil
		}
		return st.kwTime, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, p)
	}
}

func (k *SimulatedKettle) status() simulatedStatus {
	k.mu.Lock()
	now := k.now()
	if k.start.IsZero() {
		k.start = now
	}
	elapsed := now.Sub(k.start)
	k.mu.Unlock()

	cycle := simHeatingPhase + simCoolingPhase + simKeepWarmPhase + simIdlePhase
	t := elapsed % cycle

	st := simulatedStatus{
		setTemp: simSetTemperature,
		kwType:  KW_TYPE_COOL_DOWN,
	}
	switch {
	case t < simHeatingPhase:
		st.action = ACTION_HEATING
		st.mode = MODE_BOIL
		st.currentTemp = interpolate(simRoomTemperature, simBoilTemperature, t, simHeatingPhase)
	case t < simHeatingPhase+simCoolingPhase:
		t -= simHeatingPhase
		st.action = ACTION_COOLING
		st.mode = MODE_KEEP_WARM
		st.currentTemp = interpolate(simBoilTemperature, simSetTemperature, t, simCoolingPhase)
	case t < simHeatingPhase+simCoolingPhase+simKeepWarmPhase:
		t -= simHeatingPhase + simCoolingPhase
		st.action = ACTION_KEEPING_WARM
		st.mode = MODE_KEEP_WARM
		st.currentTemp = simSetTemperature
		st.kwTime = int(t.Seconds())
	default:
		t -= simHeatingPhase + simCoolingPhase + simKeepWarmPhase
		st.action = ACTION_IDLE
		st.mode = MODE_NONE
		st.currentTemp = interpolate(simSetTemperature, simRoomTemperature+20, t, simIdlePhase)
	}
	return st
}

func interpolate(from, to int, elapsed, total time.Duration) int {
	ratio := float64(elapsed) / float64(total)
	return from + int(float64(to-from)*ratio)
}
