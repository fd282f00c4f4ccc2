// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor routes decoded earable packets to per-device chart windows
// and orientation estimators.
package monitor

import (
	"fmt"
	"sync"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

// Observer is notified about every ingested packet. Calls happen on the
// ingesting goroutine and must not block.
type Observer interface {
	PacketHandled(side earable.Side, sensor earable.SensorID)
	PacketRejected(side earable.Side, err error)
	PoseUpdated(side earable.Side, pose orientation.Pose)
}

// Monitor owns one Device per earable and remembers which one the
// dashboard shows.
type Monitor struct {
	devices map[earable.Side]*Device
	obs     []Observer

	mu       sync.RWMutex
	selected earable.Side
	onSelect []func(earable.Side)
}

// New creates a monitor showing the left device.
func New(opts Options, observers ...Observer) *Monitor {
	m := &Monitor{
		devices:  make(map[earable.Side]*Device, len(earable.Sides)),
		obs:      observers,
		selected: earable.Left,
	}
	for _, side := range earable.Sides {
		m.devices[side] = NewDevice(side, opts)
	}
	return m
}

// Device returns the state of one side.
func (m *Monitor) Device(side earable.Side) (*Device, error) {
	d, ok := m.devices[side]
	if !ok {
		return nil, fmt.Errorf("%w: %q", earable.ErrUnknownSide, side)
	}
	return d, nil
}

// Ingest applies an envelope to its device. Both devices are always
// updated; selection only affects what is shown.
func (m *Monitor) Ingest(env earable.Envelope) (orientation.Pose, bool, error) {
	d, err := m.Device(env.Side)
	if err != nil {
		return orientation.Pose{}, false, err
	}

	pose, moved, err := d.Handle(env.Packet)
	if err != nil {
		for _, o := range m.obs {
			o.PacketRejected(env.Side, err)
		}
		return orientation.Pose{}, false, err
	}

	for _, o := range m.obs {
		o.PacketHandled(env.Side, env.Packet.SensorID)
		if moved {
			o.PoseUpdated(env.Side, pose)
		}
	}
	return pose, moved, nil
}

// Select switches the displayed device.
func (m *Monitor) Select(side earable.Side) error {
	if _, err := m.Device(side); err != nil {
		return err
	}
	m.mu.Lock()
	changed := m.selected != side
	m.selected = side
	hooks := m.onSelect
	m.mu.Unlock()

	if changed {
		for _, fn := range hooks {
			fn(side)
		}
	}
	return nil
}

// OnSelect registers fn to run after the displayed device changes.
func (m *Monitor) OnSelect(fn func(earable.Side)) {
	m.mu.Lock()
	m.onSelect = append(m.onSelect, fn)
	m.mu.Unlock()
}

// Selected returns the displayed device.
func (m *Monitor) Selected() earable.Side {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Resolve maps an optional side name to a device, defaulting to the
// selected one when name is empty.
func (m *Monitor) Resolve(name string) (*Device, error) {
	if name == "" {
		return m.Device(m.Selected())
	}
	side, err := earable.ParseSide(name)
	if err != nil {
		return nil, err
	}
	return m.Device(side)
}

// ClearAll empties the chart windows of both devices.
func (m *Monitor) ClearAll() {
	for _, side := range earable.Sides {
		m.devices[side].Clear()
	}
}
