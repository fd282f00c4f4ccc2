// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package series keeps bounded, index-addressed sliding windows of
// multi-channel samples for live charts.
package series

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the number of samples a chart keeps visible.
const DefaultCapacity = 150

// Channel describes one line of a chart. Channels are matched to pushed
// values by position.
type Channel struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// AxisRange is the recommended x-axis extent in sample indices.
type AxisRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ChannelSeries is a channel descriptor together with its visible values.
type ChannelSeries struct {
	Label string    `json:"label"`
	Color string    `json:"color"`
	Data  []float64 `json:"data"`
}

// Window is a consistent copy of a buffer's contents.
type Window struct {
	Indices  []int           `json:"indices"`
	Series   []ChannelSeries `json:"series"`
	Axis     AxisRange       `json:"axis"`
	Capacity int             `json:"capacity"`
}

// Buffer is a fixed-capacity sliding window. The sample index doubles as the
// x coordinate: the first sample is 0 and every push adds one.
//
// One goroutine may push while others take snapshots.
type Buffer struct {
	mu       sync.RWMutex
	channels []Channel
	capacity int
	indices  []int
	data     [][]float64
	axis     AxisRange
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// New creates an empty buffer with the given channel layout.
func New(channels []Channel, opts ...Option) *Buffer {
	if len(channels) == 0 {
		panic("series: buffer needs at least one channel")
	}
	b := &Buffer{
		channels: append([]Channel(nil), channels...),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.indices = make([]int, 0, b.capacity)
	b.data = make([][]float64, len(channels))
	for i := range b.data {
		b.data[i] = make([]float64, 0, b.capacity)
	}
	b.axis = b.defaultAxis()
	return b
}

// Push appends one sample, evicting the oldest when the window is full.
// It panics if len(values) differs from the number of channels.
func (b *Buffer) Push(values ...float64) {
	if len(values) != len(b.channels) {
		panic(fmt.Sprintf("series: push of %d values into %d channels", len(values), len(b.channels)))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := 0
	if n := len(b.indices); n > 0 {
		next = b.indices[n-1] + 1
	}

	if len(b.indices) < b.capacity {
		b.indices = append(b.indices, next)
		for i, v := range values {
			b.data[i] = append(b.data[i], v)
		}
	} else {
		last := len(b.indices) - 1
		copy(b.indices, b.indices[1:])
		b.indices[last] = next
		for i, v := range values {
			copy(b.data[i], b.data[i][1:])
			b.data[i][last] = v
		}
	}

	if len(b.indices) >= b.capacity {
		b.axis = AxisRange{Min: b.indices[0], Max: b.indices[len(b.indices)-1]}
	}
}

// Clear drops all samples and restores the default axis range.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.indices = b.indices[:0]
	for i := range b.data {
		b.data[i] = b.data[i][:0]
	}
	b.axis = b.defaultAxis()
}

// Snapshot copies the current window out of the buffer.
func (b *Buffer) Snapshot() Window {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w := Window{
		Indices:  append([]int{}, b.indices...),
		Series:   make([]ChannelSeries, len(b.channels)),
		Axis:     b.axis,
		Capacity: b.capacity,
	}
	for i, ch := range b.channels {
		w.Series[i] = ChannelSeries{
			Label: ch.Label,
			Color: ch.Color,
			Data:  append([]float64{}, b.data[i]...),
		}
	}
	return w
}

// Len returns the number of samples in the window.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.indices)
}

// Capacity returns the maximum window length.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Axis returns the recommended x-axis range.
func (b *Buffer) Axis() AxisRange {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.axis
}

// Channels returns the channel layout.
func (b *Buffer) Channels() []Channel {
	return append([]Channel(nil), b.channels...)
}

func (b *Buffer) defaultAxis() AxisRange {
	return AxisRange{Min: 0, Max: b.capacity - 1}
}
