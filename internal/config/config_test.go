package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader("# nothing set\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 150, cfg.WindowCapacity)
	assert.Equal(t, 0.2, cfg.SmoothingAlpha)
	assert.True(t, cfg.UnwrapAngles)
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	in := `
MQTT_BROKER = tcp://broker:1883
TOPIC_EARABLE_LEFT=l/sensors
TOPIC_EARABLE_RIGHT=r/sensors
WEB_SERVER_PORT=9000
WINDOW_CAPACITY=300
SMOOTHING_ALPHA=0.5
UNWRAP_ANGLES=false
SELECTED_SIDE=right
DISPLAY_I2C_ADDR=0x3D
MDNS_ENABLED=true
TOPIC_SELECTED=ui/side
`
	cfg, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, 9000, cfg.WebServerPort)
	assert.Equal(t, 300, cfg.WindowCapacity)
	assert.Equal(t, 0.5, cfg.SmoothingAlpha)
	assert.False(t, cfg.UnwrapAngles)
	assert.True(t, cfg.MDNSEnabled)
	assert.Equal(t, uint16(0x3D), cfg.DisplayI2CAddr)
	assert.Equal(t, "r/sensors", cfg.TopicEarable("right"))
	assert.Equal(t, "earable/left/pose", cfg.TopicPose("left"))
	assert.Equal(t, "ui/side", cfg.TopicSelected)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no equals":         "MQTT_BROKER",
		"unknown key":       "FOO=bar",
		"bad port":          "WEB_SERVER_PORT=http",
		"port out of range": "WEB_SERVER_PORT=70000",
		"alpha zero":        "SMOOTHING_ALPHA=0",
		"alpha too big":     "SMOOTHING_ALPHA=1.5",
		"capacity":          "WINDOW_CAPACITY=0",
		"side":              "SELECTED_SIDE=center",
		"empty broker":      "MQTT_BROKER=",
		"same topics":       "TOPIC_EARABLE_LEFT=x\nTOPIC_EARABLE_RIGHT=x",
		"bool":              "UNWRAP_ANGLES=maybe",
		"zero baud":         "SERIAL_BAUD_RATE=0",
		"negative baud":     "SERIAL_BAUD_RATE=-9600",
	}
	for name, in := range cases {
		in := in
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "earable_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("WEB_SERVER_PORT=8181\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.WebServerPort)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
