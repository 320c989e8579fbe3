package midi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"keyscope/debug"
)

const scanTimeout = 3 * time.Second

// DeviceEvent is emitted when keyboards connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Port is an input port found by a scan.
type Port struct {
	Name string
	In   drivers.In
}

// DeviceManager keeps one KeyboardController open per matching input port
// and reports hot-plug changes on Events.
type DeviceManager struct {
	mu          sync.RWMutex
	controllers map[string]Controller
	events      chan DeviceEvent
	pollRate    time.Duration
	match       string

	list func() ([]Port, bool)
	open func(Port) (Controller, error)
}

// NewDeviceManager opens every input port whose name contains match (case
// insensitive). An empty match opens all ports except "through" ports.
func NewDeviceManager(match string) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		match:       strings.ToLower(match),
		list:        systemPorts,
		open:        openKeyboard,
	}
}

// Events returns a channel of device connect/disconnect events. It is
// closed when Run returns.
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected keyboards
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	snapshot := make(map[string]Controller, len(dm.controllers))
	for id, c := range dm.controllers {
		snapshot[id] = c
	}
	return snapshot
}

// Run polls for ports until ctx is done (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()
	defer close(dm.events)
	defer dm.closeAll()

	dm.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// InPorts lists input ports, giving up after timeout (CoreMIDI can hang).
func InPorts(timeout time.Duration) ([]drivers.In, bool) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ports := <-ch:
		return ports, true
	case <-time.After(timeout):
		return nil, false
	}
}

func systemPorts() ([]Port, bool) {
	ins, ok := InPorts(scanTimeout)
	if !ok {
		return nil, false
	}
	ports := make([]Port, len(ins))
	for i, in := range ins {
		ports[i] = Port{Name: in.String(), In: in}
	}
	return ports, true
}

func openKeyboard(p Port) (Controller, error) {
	return NewKeyboardController(p.Name, p.In)
}

// scan opens new matching ports, closes vanished ones and emits an event
// for each change.
func (dm *DeviceManager) scan(ctx context.Context) {
	ports, ok := dm.list()
	if !ok {
		debug.Log("midi", "port scan timed out")
		return
	}

	present := make(map[string]Port)
	for _, p := range ports {
		if dm.matches(p.Name) {
			present[p.Name] = p
		}
	}

	dm.mu.RLock()
	added, removed := diffPorts(dm.controllers, present)
	dm.mu.RUnlock()

	for _, id := range removed {
		dm.mu.Lock()
		c := dm.controllers[id]
		delete(dm.controllers, id)
		dm.mu.Unlock()

		c.Close()
		debug.Log("midi", "disconnected %s", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}

	for _, id := range added {
		c, err := dm.open(present[id])
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}
		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		debug.Log("midi", "connected %s", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}
}

// diffPorts returns the sorted port names to open and to close.
func diffPorts(open map[string]Controller, present map[string]Port) (added, removed []string) {
	for id := range present {
		if _, ok := open[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range open {
		if _, ok := present[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) matches(name string) bool {
	name = strings.ToLower(name)
	if dm.match == "" {
		return !strings.Contains(name, "through")
	}
	return strings.Contains(name, dm.match)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for id, c := range dm.controllers {
		c.Close()
		debug.Log("midi", "closed %s", id)
	}
	dm.controllers = make(map[string]Controller)
}
