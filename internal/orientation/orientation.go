// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Vector3 is a single three-axis sensor reading. Units and axis convention
// are whatever the decoder delivers; remapping happens before this package.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is the canonical representation of orientation for your app.
// Angles are in degrees and are not clamped to ±180 once unwrapped.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Sample is one synthetic or replayed IMU reading.
type Sample struct {
	Acc  Vector3 `json:"acc"`
	Gyro Vector3 `json:"gyro"`
	Mag  Vector3 `json:"mag"`
}

// Source is anything that can provide IMU samples over time.
type Source interface {
	Next() (Sample, error)
}

// Raw computes the unsmoothed pose of a single accelerometer/magnetometer pair.
//
// Tilt from the accelerometer (expects roughly -g at rest):
//
//	pitch = atan2(-ax, sqrt(ay² + az²))
//	roll  = atan2(ay, az)
//
// Yaw from the tilt-compensated magnetometer:
//
//	mxTilt = mx·cos(pitch) + mz·sin(pitch)
//	myTilt = mx·sin(roll)·sin(pitch) + my·cos(roll) − mz·sin(roll)·cos(pitch)
//	yaw    = atan2(-myTilt, mxTilt)
func Raw(acc, mag Vector3) Pose {
	pitch := math.Atan2(-acc.X, math.Sqrt(acc.Y*acc.Y+acc.Z*acc.Z))
	roll := math.Atan2(acc.Y, acc.Z)

	sinPitch, cosPitch := math.Sincos(pitch)
	sinRoll, cosRoll := math.Sincos(roll)

	mxTilt := mag.X*cosPitch + mag.Z*sinPitch
	myTilt := mag.X*sinRoll*sinPitch + mag.Y*cosRoll - mag.Z*sinRoll*cosPitch
	yaw := math.Atan2(-myTilt, mxTilt)

	return Pose{
		Roll:  Degrees(roll),
		Pitch: Degrees(pitch),
		Yaw:   Degrees(yaw),
	}
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is left at 0.
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  Degrees(rollRad),
		Pitch: Degrees(pitchRad),
	}
}
