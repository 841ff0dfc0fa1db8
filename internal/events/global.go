package events

import (
	"context"
	"sync"
)

var (
	globalBus     EventBus
	globalBusLock sync.RWMutex
)

// SetGlobalBus sets the global event bus instance.
func SetGlobalBus(bus EventBus) {
	globalBusLock.Lock()
	defer globalBusLock.Unlock()
	globalBus = bus
}

// GetGlobalBus returns the global event bus instance, which may be nil
// before server startup.
func GetGlobalBus() EventBus {
	globalBusLock.RLock()
	defer globalBusLock.RUnlock()
	return globalBus
}

// PublishGlobal publishes on the global bus if one is set. Modules use
// this for best-effort lifecycle notifications.
func PublishGlobal(event Event) {
	bus := GetGlobalBus()
	if bus == nil {
		return
	}
	_ = bus.Publish(context.Background(), event)
}
