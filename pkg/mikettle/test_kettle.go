package mikettle

import (
	"sync"
)

// TestKettle is a programmable Kettle for tests. Parameters without a value
// or an error return nil.
type TestKettle struct {
	mu     sync.Mutex
	values map[Parameter]any
	errs   map[Parameter]error
	panics map[Parameter]any
	calls  map[Parameter]int
	delay  func(Parameter)
}

func NewTestKettle() *TestKettle {
	return &TestKettle{
		values: make(map[Parameter]any),
		errs:   make(map[Parameter]error),
		panics: make(map[Parameter]any),
		calls:  make(map[Parameter]int),
	}
}

func (k *TestKettle) SetValue(p Parameter, value any) *TestKettle {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[p] = value
	delete(k.errs, p)
	return k
}

func (k *TestKettle) SetError(p Parameter, err error) *TestKettle {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.errs[p] = err
	return k
}

func (k *TestKettle) SetPanic(p Parameter, reason any) *TestKettle {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.panics[p] = reason
	return k
}

// SetDelay installs a hook invoked before every call, e.g. to block.
func (k *TestKettle) SetDelay(fn func(Parameter)) *TestKettle {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.delay = fn
	return k
}

func (k *TestKettle) Clear(p Parameter) *TestKettle {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.values, p)
	delete(k.errs, p)
	delete(k.panics, p)
	return k
}

func (k *TestKettle) Calls(p Parameter) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.calls[p]
}

func (k *TestKettle) ParameterValue(p Parameter) (any, error) {
	k.mu.Lock()
	k.calls[p]++
	delay := k.delay
	value := k.values[p]
	err := k.errs[p]
	reason, shouldPanic := k.panics[p]
	k.mu.Unlock()

	if delay != nil {
		delay(p)
	}
	if shouldPanic {
		panic(reason)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ensure interface compliance
var _ Kettle = (*TestKettle)(nil)
var _ Kettle = (*SimulatedKettle)(nil)
