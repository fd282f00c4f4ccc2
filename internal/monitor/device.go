package monitor

import (
	"fmt"
	"sync"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
	"github.com/relabs-tech/earable_monitor/internal/series"
)

// Options configures the per-device state.
type Options struct {
	Capacity  int     // samples per chart window
	Smoothing float64 // EMA alpha for orientation
	Unwrap    bool    // unwrap angles before smoothing
}

// DefaultOptions matches the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Capacity:  series.DefaultCapacity,
		Smoothing: orientation.DefaultSmoothing,
		Unwrap:    true,
	}
}

// ChartWindow is a chart definition together with its current window.
type ChartWindow struct {
	earable.Chart
	series.Window
}

// DeviceSnapshot is a consistent copy of one device's state.
type DeviceSnapshot struct {
	Side    earable.Side      `json:"side"`
	Pose    orientation.Pose  `json:"pose"`
	HasPose bool              `json:"has_pose"`
	Charts  []ChartWindow     `json:"charts"`
	Packets map[string]uint64 `json:"packets"`
	Version uint64            `json:"version"`
}

// Device holds the chart windows and orientation estimate of one earable.
// Handle and Clear are serialised; snapshots copy out under the same lock
// so readers never observe a half-applied packet.
type Device struct {
	side earable.Side

	mu        sync.Mutex
	buffers   map[earable.Signal]*series.Buffer
	estimator *orientation.Estimator
	hasPose   bool
	packets   map[earable.SensorID]uint64
	version   uint64
}

// NewDevice creates empty windows for every chart in earable.Charts.
func NewDevice(side earable.Side, opts Options) *Device {
	d := &Device{
		side:    side,
		buffers: make(map[earable.Signal]*series.Buffer, len(earable.Charts)),
		estimator: orientation.NewEstimator(
			orientation.WithSmoothing(opts.Smoothing),
			orientation.WithUnwrap(opts.Unwrap),
		),
		packets: make(map[earable.SensorID]uint64),
	}
	for _, c := range earable.Charts {
		d.buffers[c.Signal] = series.New(c.Channels, series.WithCapacity(opts.Capacity))
	}
	return d
}

// Side returns the device this state belongs to.
func (d *Device) Side() earable.Side {
	return d.side
}

// Handle applies one decoded packet. IMU packets are remapped into the
// chart frame, pushed to the three inertial charts and fed to the
// estimator. The returned flag reports whether the pose changed.
func (d *Device) Handle(p earable.Packet) (orientation.Pose, bool, error) {
	if p.SensorID == earable.SensorIMU {
		p = earable.RemapIMU(p)
	}
	route, updates, err := earable.Updates(p)
	if err != nil {
		return orientation.Pose{}, false, fmt.Errorf("%s: %w", d.side, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range updates {
		d.buffers[u.Signal].Push(u.Values...)
	}

	var pose orientation.Pose
	if route.Orientation {
		pose = d.estimator.Update(p.ACC.Vector(), p.MAG.Vector())
		d.hasPose = true
	} else {
		pose = d.estimator.Pose()
	}

	d.packets[p.SensorID]++
	d.version++
	return pose, route.Orientation, nil
}

// Clear empties every chart window. The orientation estimate is kept so the
// 3D view does not snap back to zero.
func (d *Device) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range d.buffers {
		b.Clear()
	}
	d.version++
}

// Pose returns the current smoothed orientation.
func (d *Device) Pose() (orientation.Pose, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.estimator.Pose(), d.hasPose
}

// Window returns the current window of one chart.
func (d *Device) Window(s earable.Signal) (ChartWindow, bool) {
	c, ok := earable.ChartFor(s)
	if !ok {
		return ChartWindow{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return ChartWindow{Chart: c, Window: d.buffers[s].Snapshot()}, true
}

// Version increases on every applied packet or clear.
func (d *Device) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Snapshot copies the full device state.
func (d *Device) Snapshot() DeviceSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := DeviceSnapshot{
		Side:    d.side,
		Pose:    d.estimator.Pose(),
		HasPose: d.hasPose,
		Charts:  make([]ChartWindow, 0, len(earable.Charts)),
		Packets: make(map[string]uint64, len(d.packets)),
		Version: d.version,
	}
	for _, c := range earable.Charts {
		snap.Charts = append(snap.Charts, ChartWindow{Chart: c, Window: d.buffers[c.Signal].Snapshot()})
	}
	for id, n := range d.packets {
		snap.Packets[id.String()] = n
	}
	return snap
}
