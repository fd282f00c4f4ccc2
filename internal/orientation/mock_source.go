// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock IMU source whose readings describe a device
// slowly rocking in pitch and roll while turning in yaw. The accelerometer
// reports roughly 1 g and the magnetometer a 50 µT field.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	target := Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   WrapAngle(elapsed * 30),
	}
	return SampleFor(target, 50), nil
}

// SampleFor builds an accelerometer/magnetometer pair that Raw maps back to p.
// The gyro carries the angular rate of the mock motion and is only charted.
func SampleFor(p Pose, field float64) Sample {
	roll, pitch, yaw := Radians(p.Roll), Radians(p.Pitch), Radians(p.Yaw)
	sinRoll, cosRoll := math.Sincos(roll)
	sinPitch, cosPitch := math.Sincos(pitch)
	sinYaw, cosYaw := math.Sincos(yaw)

	acc := Vector3{
		X: -sinPitch,
		Y: cosPitch * sinRoll,
		Z: cosPitch * cosRoll,
	}

	// Horizontal field components that Raw reads back as the target heading.
	hx := field * cosYaw
	hy := -field * sinYaw

	// Rotate the level field (hx, hy, 0) into the body frame. This is the
	// transpose of the tilt compensation applied in Raw.
	mag := Vector3{
		X: cosPitch*hx + sinRoll*sinPitch*hy,
		Y: cosRoll * hy,
		Z: sinPitch*hx - sinRoll*cosPitch*hy,
	}

	return Sample{
		Acc:  acc,
		Gyro: Vector3{X: p.Roll * 0.1, Y: p.Pitch * 0.1, Z: 30},
		Mag:  mag,
	}
}
