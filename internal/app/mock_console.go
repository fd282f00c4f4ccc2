// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

// RunMockConsole runs the mock IMU through an estimator and prints the
// smoothed pose next to the raw heading and the accelerometer-only tilt.
// No broker needed.
func RunMockConsole(alpha float64, unwrap bool) error {
	src := orientation.NewMockSource()
	est := orientation.NewEstimator(orientation.WithSmoothing(alpha), orientation.WithUnwrap(unwrap))

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			return err
		}
		fmt.Println(mockConsoleLine(est.Update(s.Acc, s.Mag), s))
	}
	return nil
}

func mockConsoleLine(pose orientation.Pose, s orientation.Sample) string {
	raw := orientation.Raw(s.Acc, s.Mag)
	tilt := orientation.ComputePoseFromAccel(s.Acc.X, s.Acc.Y, s.Acc.Z)
	return fmt.Sprintf("%s  raw Y=%7.2f  tilt R=%7.2f P=%7.2f",
		formatPose(earable.Left, pose), raw.Yaw, tilt.Roll, tilt.Pitch)
}
