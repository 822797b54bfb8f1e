package mikettle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kettle is a handle to one physical kettle. Implementations own the BLE
// session and are expected to serialize their own access to it.
//
// ParameterValue returns the decoded value of p, nil when the kettle is
// reachable but has no value for p, or an error on transport failure.
type Kettle interface {
	ParameterValue(p Parameter) (any, error)
}

// Factory builds a Kettle for the given address and product id. It must not
// perform any I/O: the session is established on the first ParameterValue call.
type Factory func(mac string, productId int) (Kettle, error)

var (
	ErrUnknownDriver = errors.New("unknown kettle driver")

	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// Register makes a driver available under name. It panics if called twice
// with the same name or with a nil factory.
func Register(name string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if factory == nil {
		panic("mikettle: Register factory is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("mikettle: Register called twice for driver " + name)
	}
	drivers[name] = factory
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// HasDriver reports whether name is registered.
func HasDriver(name string) bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Open builds a Kettle through the named driver.
func Open(driverName string, mac string, productId int) (Kettle, error) {
	driversMu.RLock()
	factory, ok := drivers[driverName]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driverName)
	}
	return factory(mac, productId)
}
