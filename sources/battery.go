package sources

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

const (
	upowerService       = "org.freedesktop.UPower"
	upowerDisplayDevice = "/org/freedesktop/UPower/devices/DisplayDevice"
	upowerDeviceIface   = "org.freedesktop.UPower.Device"
	propertiesGet       = "org.freedesktop.DBus.Properties.Get"
)

// Battery states reported by the UPower device interface.
const (
	batteryCharging     = 1
	batteryDischarging  = 2
	batteryEmpty        = 3
	batteryFullyCharged = 4
)

// DefaultBatteryUrgentBelow is the charge percentage under which a
// discharging battery is shown as urgent.
const DefaultBatteryUrgentBelow = 15

// A Battery displays the charge of the display battery that UPower
// aggregates on the system bus.
type Battery struct {
	urgentBelow float64
	conn        *dbus.Conn
}

// NewBattery returns a battery source.  A non-positive urgentBelow
// means DefaultBatteryUrgentBelow.
func NewBattery(urgentBelow float64) *Battery {
	if urgentBelow <= 0 {
		urgentBelow = DefaultBatteryUrgentBelow
	}
	return &Battery{urgentBelow: urgentBelow}
}

func (b *Battery) Name() string {
	return "battery"
}

func (b *Battery) Block(ctx context.Context) (protocol.Block, error) {
	obj, err := b.device()
	if err != nil {
		return protocol.Block{}, err
	}
	percentage, err := floatProperty(ctx, obj, "Percentage")
	if err != nil {
		return protocol.Block{}, fmt.Errorf("reading battery charge: %w", err)
	}
	state, err := uint32Property(ctx, obj, "State")
	if err != nil {
		return protocol.Block{}, fmt.Errorf("reading battery state: %w", err)
	}
	block := protocol.NewBlock(batteryText(percentage, state)).SetName("battery")
	if batteryUrgent(percentage, state, b.urgentBelow) {
		block.SetUrgent(true).SetColor(urgentColor)
	}
	return *block, nil
}

// device returns the UPower display device, connecting to the system
// bus on first use.  The connection is kept for later refreshes.
func (b *Battery) device() (dbus.BusObject, error) {
	if b.conn == nil {
		conn, err := dbus.SystemBus()
		if err != nil {
			return nil, fmt.Errorf("connecting to system bus: %w", err)
		}
		b.conn = conn
	}
	return b.conn.Object(upowerService, upowerDisplayDevice), nil
}

func batteryText(percentage float64, state uint32) string {
	text := fmt.Sprintf("bat %.0f%%", percentage)
	switch state {
	case batteryCharging:
		text += " +"
	case batteryDischarging:
		text += " -"
	}
	return text
}

func batteryUrgent(percentage float64, state uint32, urgentBelow float64) bool {
	switch state {
	case batteryDischarging, batteryEmpty:
		return percentage < urgentBelow
	default:
		return false
	}
}

func floatProperty(ctx context.Context, obj dbus.BusObject, prop string) (float64, error) {
	variant, err := property(ctx, obj, prop)
	if err != nil {
		return 0, err
	}
	value, ok := variant.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("property %s has type %T, expected float64", prop, variant.Value())
	}
	return value, nil
}

func uint32Property(ctx context.Context, obj dbus.BusObject, prop string) (uint32, error) {
	variant, err := property(ctx, obj, prop)
	if err != nil {
		return 0, err
	}
	value, ok := variant.Value().(uint32)
	if !ok {
		return 0, fmt.Errorf("property %s has type %T, expected uint32", prop, variant.Value())
	}
	return value, nil
}

func property(ctx context.Context, obj dbus.BusObject, prop string) (dbus.Variant, error) {
	var variant dbus.Variant
	call := obj.CallWithContext(ctx, propertiesGet, 0, upowerDeviceIface, prop)
	if call.Err != nil {
		return variant, call.Err
	}
	if err := call.Store(&variant); err != nil {
		return variant, err
	}
	return variant, nil
}
