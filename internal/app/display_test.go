package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

func litPixels(pix []byte) int {
	n := 0
	for _, b := range pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestRenderPose(t *testing.T) {
	t.Parallel()

	waiting := renderPose(earable.Left, orientation.Pose{}, false)
	full := renderPose(earable.Left, orientation.Pose{Roll: 12.5, Pitch: -3, Yaw: 540}, true)

	assert.Equal(t, 128, waiting.Bounds().Dx())
	assert.Equal(t, 64, waiting.Bounds().Dy())
	assert.Greater(t, litPixels(waiting.Pix), 0)
	assert.Greater(t, litPixels(full.Pix), litPixels(waiting.Pix))
	assert.Greater(t, litPixels(renderSplash().Pix), 0)
}

func TestFormatPose(t *testing.T) {
	t.Parallel()

	got := formatPose(earable.Right, orientation.Pose{Roll: 1, Pitch: 2, Yaw: -3.5})
	assert.Equal(t, "[POSE-R] ROLL=   1.00  PITCH=   2.00  YAW=  -3.50", got)
}

type recordingBus struct {
	i2c.Bus
	addrs []uint16
}

func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	b.addrs = append(b.addrs, addr)
	return nil
}

func TestAddrBusRedirects(t *testing.T) {
	t.Parallel()

	rec := &recordingBus{}
	bus := &addrBus{Bus: rec, addr: 0x3D}
	assert.NoError(t, bus.Tx(0x3C, []byte{0x00}, nil))
	assert.Equal(t, []uint16{0x3D}, rec.addrs)
}

func TestMockConsoleLine(t *testing.T) {
	t.Parallel()

	s := orientation.SampleFor(orientation.Pose{Roll: 10, Pitch: -5, Yaw: 90}, 50)
	got := mockConsoleLine(orientation.Pose{Roll: 1, Pitch: 2, Yaw: 3}, s)
	assert.Equal(t,
		"[POSE-L] ROLL=   1.00  PITCH=   2.00  YAW=   3.00  raw Y=  90.00  tilt R=  10.00 P=  -5.00",
		got)
}

func TestDisplayFollowsSelection(t *testing.T) {
	t.Parallel()

	data := newDisplayData(earable.Left)
	assert.NoError(t, data.handlePose(earable.Right, []byte(`{"roll":1,"pitch":2,"yaw":3}`)))

	side, _, have := data.current()
	assert.Equal(t, earable.Left, side)
	assert.False(t, have)

	assert.NoError(t, data.handleSelection([]byte(`{"side":"right"}`)))
	side, pose, have := data.current()
	assert.Equal(t, earable.Right, side)
	assert.True(t, have)
	assert.Equal(t, orientation.Pose{Roll: 1, Pitch: 2, Yaw: 3}, pose)

	assert.Error(t, data.handleSelection([]byte(`{"side":"top"}`)))
	assert.Error(t, data.handlePose(earable.Left, []byte(`nope`)))
	side, _, _ = data.current()
	assert.Equal(t, earable.Right, side)
}
