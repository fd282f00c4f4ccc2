package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
)

// publisher is the part of an MQTT client the bridge needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// parseBridgeLine decodes one JSON line from the receiver. Lines may be a
// full envelope or a bare packet, in which case def is used as the side.
// Empty lines and lines not starting with '{' are skipped (ok == false).
func parseBridgeLine(line string, def earable.Side) (env earable.Envelope, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return earable.Envelope{}, false, nil
	}

	// The receiver may tag each line with its own side.
	side := def
	var tagged struct {
		Side string `json:"side"`
	}
	if err := json.Unmarshal([]byte(line), &tagged); err != nil {
		return earable.Envelope{}, false, fmt.Errorf("unmarshal line: %w", err)
	}
	if tagged.Side != "" {
		if side, err = earable.ParseSide(tagged.Side); err != nil {
			return earable.Envelope{}, false, err
		}
	}

	env, err = decodeEnvelope(side, []byte(line))
	if err != nil {
		return earable.Envelope{}, false, err
	}
	if err := earable.Validate(env.Packet); err != nil {
		return earable.Envelope{}, false, err
	}
	return env, true, nil
}

// bridge forwards every valid line of r to the side's sensor topic. A last
// line without a trailing newline is still forwarded.
func bridge(r io.Reader, pub publisher, cfg *config.Config, def earable.Side) error {
	reader := bufio.NewReader(r)
	forwarded := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("serial read: %w", err)
		}
		if line != "" && forwardLine(line, pub, cfg, def) {
			forwarded++
		}
		if err == io.EOF {
			log.Printf("bridge: input closed after %d packets", forwarded)
			return nil
		}
	}
}

func forwardLine(line string, pub publisher, cfg *config.Config, def earable.Side) bool {
	env, ok, err := parseBridgeLine(line, def)
	if err != nil {
		// Partial lines are common right after the port opens.
		log.Printf("bridge: dropping line: %v", err)
		return false
	}
	if !ok {
		return false
	}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("bridge: json marshal error: %v", err)
		return false
	}
	token := pub.Publish(cfg.TopicEarable(string(env.Side)), 0, false, payload)
	if token.Wait() && token.Error() != nil {
		log.Printf("bridge: publish error: %v", token.Error())
		return false
	}
	return true
}

// RunSerialBridge opens the receiver's serial port and publishes the
// decoded packets it prints, one JSON object per line, to MQTT.
func RunSerialBridge() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if cfg.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required for the serial bridge")
	}
	def, err := earable.ParseSide(cfg.SerialSide)
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDBridge)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("bridge: connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("bridge: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return bridge(port, client, cfg, def)
}
