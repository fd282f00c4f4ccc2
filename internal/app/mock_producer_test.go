package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/monitor"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

func TestMockEnvelopes(t *testing.T) {
	t.Parallel()

	target := orientation.Pose{Roll: 12, Pitch: -8, Yaw: 135}
	s := orientation.SampleFor(target, 50)

	envs := mockEnvelopes(earable.Right, 1, s)
	require.Len(t, envs, 1)
	assert.Equal(t, earable.SensorIMU, envs[0].Packet.SensorID)

	envs = mockEnvelopes(earable.Right, envEvery, s)
	require.Len(t, envs, 4)
	for _, env := range envs {
		assert.Equal(t, earable.Right, env.Side)
		assert.NoError(t, earable.Validate(env.Packet))
	}
}

func TestMockEnvelopesRoundTrip(t *testing.T) {
	t.Parallel()

	target := orientation.Pose{Roll: 12, Pitch: -8, Yaw: 135}
	s := orientation.SampleFor(target, 50)

	opts := monitor.DefaultOptions()
	opts.Smoothing = 1
	m := monitor.New(opts)

	var pose orientation.Pose
	for _, env := range mockEnvelopes(earable.Left, 0, s) {
		p, moved, err := m.Ingest(env)
		require.NoError(t, err)
		if moved {
			pose = p
		}
	}

	assert.InDelta(t, target.Roll, pose.Roll, 1e-6)
	assert.InDelta(t, target.Pitch, pose.Pitch, 1e-6)
	assert.InDelta(t, target.Yaw, pose.Yaw, 1e-6)

	d, _ := m.Device(earable.Left)
	snap := d.Snapshot()
	for _, c := range snap.Charts {
		assert.Len(t, c.Indices, 1, "chart %s", c.Signal)
	}
}
