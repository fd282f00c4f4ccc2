package orientation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func headingMag(yawDeg float64) Vector3 {
	s, c := math.Sincos(Radians(yawDeg))
	return Vector3{X: c, Y: -s, Z: 0}
}

func TestRaw(t *testing.T) {
	t.Parallel()

	t.Run("level face up points north", func(t *testing.T) {
		p := Raw(Vector3{Z: 1}, Vector3{X: 1})
		assert.InDelta(t, 0, p.Pitch, eps)
		assert.InDelta(t, 0, p.Roll, eps)
		assert.InDelta(t, 0, p.Yaw, eps)
	})

	t.Run("gravity along -z reads as roll 180", func(t *testing.T) {
		p := Raw(Vector3{Z: -1}, Vector3{X: 1})
		assert.InDelta(t, 0, p.Pitch, eps)
		assert.InDelta(t, 180, math.Abs(p.Roll), eps)
		assert.InDelta(t, 0, p.Yaw, eps)
	})

	t.Run("pitch from x axis", func(t *testing.T) {
		p := Raw(Vector3{X: -1}, Vector3{X: 1})
		assert.InDelta(t, 90, p.Pitch, eps)
	})

	t.Run("heading east", func(t *testing.T) {
		p := Raw(Vector3{Z: 1}, headingMag(90))
		assert.InDelta(t, 90, p.Yaw, eps)
	})

	t.Run("zero accelerometer is defined", func(t *testing.T) {
		p := Raw(Vector3{}, Vector3{X: 1, Y: 2, Z: 3})
		assert.False(t, math.IsNaN(p.Pitch))
		assert.False(t, math.IsNaN(p.Roll))
		assert.False(t, math.IsNaN(p.Yaw))
		assert.Equal(t, 0.0, p.Pitch)
		assert.Equal(t, 0.0, p.Roll)
	})

	t.Run("tilt compensated heading", func(t *testing.T) {
		for _, want := range []Pose{
			{Roll: 10, Pitch: 5, Yaw: 45},
			{Roll: -30, Pitch: 20, Yaw: -120},
			{Roll: 60, Pitch: -40, Yaw: 170},
		} {
			s := SampleFor(want, 48)
			got := Raw(s.Acc, s.Mag)
			assert.InDelta(t, want.Roll, got.Roll, 1e-6)
			assert.InDelta(t, want.Pitch, got.Pitch, 1e-6)
			assert.InDelta(t, want.Yaw, got.Yaw, 1e-6)
		}
	})
}

func TestComputePoseFromAccel(t *testing.T) {
	t.Parallel()

	p := ComputePoseFromAccel(0, 1, 0)
	assert.InDelta(t, 90, p.Roll, eps)
	assert.InDelta(t, 0, p.Pitch, eps)
	assert.Equal(t, 0.0, p.Yaw)
}

func TestUnwrapAngle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		next     float64
		previous float64
		want     float64
	}{
		{"no jump", 10, 5, 10},
		{"cross positive boundary", -179, 179, 181},
		{"cross negative boundary", 179, -179, -181},
		{"exactly 180 apart is kept", 180, 0, 180},
		{"previous already unwrapped", -170, 530, 550},
		{"exactly -180 apart is kept", -180, 0, -180},
		{"several turns behind", 10, 1090, 1090},
		{"several turns ahead", 1450, 0, 10},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, UnwrapAngle(tc.next, tc.previous), eps)
		})
	}
}

func TestUnwrapAngleLargePrevious(t *testing.T) {
	t.Parallel()

	// A device spinning for hours leaves a huge unwrapped yaw behind.
	for _, prev := range []float64{1e12, -1e12, 1e15} {
		got := UnwrapAngle(10, prev)
		assert.LessOrEqual(t, math.Abs(got-prev), 180.0, "prev %g", prev)
	}
	assert.InDelta(t, 10, WrapAngle(UnwrapAngle(10, 1e12)), 1e-3)
}

func TestWrapAngle(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10, WrapAngle(370), eps)
	assert.InDelta(t, 180, WrapAngle(-180), eps)
	assert.InDelta(t, -90, WrapAngle(270), eps)
	assert.InDelta(t, 0, WrapAngle(0), eps)
}

func TestMockSource(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	src := newMockSource(func() time.Time { return now })

	s, err := src.Next()
	require.NoError(t, err)
	got := Raw(s.Acc, s.Mag)
	assert.InDelta(t, 0, got.Roll, 1e-6)
	assert.InDelta(t, 15, got.Pitch, 1e-6)
	assert.InDelta(t, 0, got.Yaw, 1e-6)

	now = now.Add(2 * time.Second)
	s, err = src.Next()
	require.NoError(t, err)
	got = Raw(s.Acc, s.Mag)
	assert.InDelta(t, 60, got.Yaw, 1e-6)
	assert.InDelta(t, 1, math.Sqrt(s.Acc.X*s.Acc.X+s.Acc.Y*s.Acc.Y+s.Acc.Z*s.Acc.Z), 1e-9)
}
