package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDDashboard string
	MQTTClientIDProducer  string
	MQTTClientIDConsole   string
	MQTTClientIDBridge    string
	MQTTClientIDDisplay   string

	// Topics
	TopicEarableLeft  string
	TopicEarableRight string
	TopicPoseLeft     string
	TopicPoseRight    string
	TopicSelected     string

	// Web Server
	WebServerPort  int
	WebStaticDir   string
	MetricsEnabled bool
	MDNSEnabled    bool
	MDNSInstance   string

	// Charts and orientation
	WindowCapacity int
	SmoothingAlpha float64
	UnwrapAngles   bool
	SelectedSide   string

	// Serial bridge
	SerialPort     string
	SerialBaudRate int
	SerialSide     string

	// Timing
	ProducerInterval int // milliseconds

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level singleton: InitGlobal sets it once, Get reads it under a
// read lock so any goroutine can use it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration that works against a local broker.
func Default() *Config {
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDDashboard: "earable-dashboard",
		MQTTClientIDProducer:  "earable-producer-mock",
		MQTTClientIDConsole:   "earable-console",
		MQTTClientIDBridge:    "earable-serial-bridge",
		MQTTClientIDDisplay:   "earable-display",

		TopicEarableLeft:  "earable/left/sensors",
		TopicEarableRight: "earable/right/sensors",
		TopicPoseLeft:     "earable/left/pose",
		TopicPoseRight:    "earable/right/pose",
		TopicSelected:     "earable/selected",

		WebServerPort:  8080,
		WebStaticDir:   "web",
		MetricsEnabled: true,
		MDNSEnabled:    false,
		MDNSInstance:   "earable-monitor",

		WindowCapacity: 150,
		SmoothingAlpha: 0.2,
		UnwrapAngles:   true,
		SelectedSide:   "left",

		SerialBaudRate: 115200,
		SerialSide:     "left",

		ProducerInterval: 20,

		DisplayI2CBus:         "",
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines. Blank lines and lines starting with # are
// skipped; unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_EARABLE_LEFT":
		c.TopicEarableLeft = value
	case "TOPIC_EARABLE_RIGHT":
		c.TopicEarableRight = value
	case "TOPIC_POSE_LEFT":
		c.TopicPoseLeft = value
	case "TOPIC_POSE_RIGHT":
		c.TopicPoseRight = value
	case "TOPIC_SELECTED":
		c.TopicSelected = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value
	case "METRICS_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED %q: %w", value, err)
		}
		c.MetricsEnabled = b
	case "MDNS_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MDNS_ENABLED %q: %w", value, err)
		}
		c.MDNSEnabled = b
	case "MDNS_INSTANCE":
		c.MDNSInstance = value

	// Charts and orientation
	case "WINDOW_CAPACITY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_CAPACITY %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("WINDOW_CAPACITY must be positive, got %d", n)
		}
		c.WindowCapacity = n
	case "SMOOTHING_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SMOOTHING_ALPHA %q: %w", value, err)
		}
		if alpha <= 0 || alpha > 1 {
			return fmt.Errorf("SMOOTHING_ALPHA must be in (0, 1], got %g", alpha)
		}
		c.SmoothingAlpha = alpha
	case "UNWRAP_ANGLES":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid UNWRAP_ANGLES %q: %w", value, err)
		}
		c.UnwrapAngles = b
	case "SELECTED_SIDE":
		c.SelectedSide = value

	// Serial bridge
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = rate
	case "SERIAL_SIDE":
		c.SerialSide = value

	// Timing
	case "PRODUCER_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_INTERVAL %q: %w", value, err)
		}
		c.ProducerInterval = interval

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicEarableLeft == "" || c.TopicEarableRight == "" {
		return fmt.Errorf("TOPIC_EARABLE_LEFT and TOPIC_EARABLE_RIGHT are required")
	}
	if c.TopicEarableLeft == c.TopicEarableRight {
		return fmt.Errorf("TOPIC_EARABLE_LEFT and TOPIC_EARABLE_RIGHT must differ")
	}
	switch strings.ToLower(c.SelectedSide) {
	case "left", "right":
	default:
		return fmt.Errorf("SELECTED_SIDE must be left or right, got %q", c.SelectedSide)
	}
	if c.ProducerInterval <= 0 {
		return fmt.Errorf("PRODUCER_INTERVAL must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// TopicEarable returns the sensor topic of a side name.
func (c *Config) TopicEarable(side string) string {
	if side == "right" {
		return c.TopicEarableRight
	}
	return c.TopicEarableLeft
}

// TopicPose returns the pose topic of a side name.
func (c *Config) TopicPose(side string) string {
	if side == "right" {
		return c.TopicPoseRight
	}
	return c.TopicPoseLeft
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
