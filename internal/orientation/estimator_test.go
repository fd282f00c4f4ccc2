package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimatorDefaults(t *testing.T) {
	t.Parallel()

	e := NewEstimator()
	assert.Equal(t, Pose{}, e.Pose())
	assert.Equal(t, DefaultSmoothing, e.Alpha())

	e = NewEstimator(WithSmoothing(0), WithInitialPose(Pose{Yaw: 12}))
	assert.Equal(t, DefaultSmoothing, e.Alpha())
	assert.Equal(t, Pose{Yaw: 12}, e.Pose())
}

func TestEstimatorSingleUpdate(t *testing.T) {
	t.Parallel()

	s := SampleFor(Pose{Roll: 10, Pitch: -20, Yaw: 50}, 40)
	e := NewEstimator()
	got := e.Update(s.Acc, s.Mag)

	assert.InDelta(t, 2, got.Roll, 1e-6)
	assert.InDelta(t, -4, got.Pitch, 1e-6)
	assert.InDelta(t, 10, got.Yaw, 1e-6)
	assert.Equal(t, got, e.Pose())
}

func TestEstimatorUpdateAlpha(t *testing.T) {
	t.Parallel()

	s := SampleFor(Pose{Roll: 10, Pitch: -20, Yaw: 50}, 40)
	e := NewEstimator()
	got := e.UpdateAlpha(s.Acc, s.Mag, 1)
	assert.InDelta(t, 10, got.Roll, 1e-6)
	assert.InDelta(t, -20, got.Pitch, 1e-6)
	assert.InDelta(t, 50, got.Yaw, 1e-6)

	// Invalid alpha falls back to the default weight.
	e.Reset(Pose{})
	got = e.UpdateAlpha(s.Acc, s.Mag, 1.5)
	assert.InDelta(t, 10, got.Yaw, 1e-6)
}

func TestEstimatorConverges(t *testing.T) {
	t.Parallel()

	target := Pose{Roll: 25, Pitch: 12, Yaw: -70}
	s := SampleFor(target, 50)
	raw := Raw(s.Acc, s.Mag)

	e := NewEstimator()
	var got Pose
	for i := 0; i < 20; i++ {
		got = e.Update(s.Acc, s.Mag)
	}

	assert.InDelta(t, raw.Roll, got.Roll, math.Abs(raw.Roll)*0.02)
	assert.InDelta(t, raw.Pitch, got.Pitch, math.Abs(raw.Pitch)*0.02)
	assert.InDelta(t, raw.Yaw, got.Yaw, math.Abs(raw.Yaw)*0.02)
}

func TestEstimatorLevelNorth(t *testing.T) {
	t.Parallel()

	e := NewEstimator()
	var got Pose
	for i := 0; i < 10; i++ {
		got = e.Update(Vector3{X: 0, Y: 0, Z: -1}, Vector3{X: 1, Y: 0, Z: 0})
	}
	assert.InDelta(t, 0, got.Pitch, 1e-9)
	assert.InDelta(t, 0, got.Yaw, 1e-9)
	// atan2(0, -1) puts the flipped level device at roll ±180; the estimate
	// approaches it from zero without overshooting.
	assert.True(t, math.Abs(got.Roll) > 150 && math.Abs(got.Roll) <= 180, "roll=%f", got.Roll)
}

func TestEstimatorDegenerateAccel(t *testing.T) {
	t.Parallel()

	e := NewEstimator()
	assert.NotPanics(t, func() {
		got := e.Update(Vector3{}, Vector3{})
		assert.Equal(t, 0.0, got.Pitch)
		assert.Equal(t, 0.0, got.Roll)
		assert.False(t, math.IsNaN(got.Yaw))
	})
}

func TestEstimatorYawBoundary(t *testing.T) {
	t.Parallel()

	up := Vector3{Z: 1}

	t.Run("unwrapped", func(t *testing.T) {
		e := NewEstimator(WithInitialPose(Pose{Yaw: 179}))
		got := e.Update(up, headingMag(-179))
		assert.InDelta(t, 179.4, got.Yaw, 1e-6)

		// Keeps turning past 180 without jumping back.
		got = e.Update(up, headingMag(-170))
		assert.InDelta(t, 0.2*190+0.8*179.4, got.Yaw, 1e-6)
	})

	t.Run("legacy wrapped smoothing", func(t *testing.T) {
		e := NewEstimator(WithInitialPose(Pose{Yaw: 179}), WithUnwrap(false))
		got := e.Update(up, headingMag(-179))
		assert.InDelta(t, 107.4, got.Yaw, 1e-6)
	})
}
