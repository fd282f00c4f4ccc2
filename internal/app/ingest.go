package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/monitor"
)

// ingester decodes envelopes from MQTT and applies them to the monitor.
// paho runs subscription callbacks one at a time per client, which keeps a
// single writer per device.
type ingester struct {
	m      *monitor.Monitor
	cfg    *config.Config
	client mqttClient
}

// mqttClient is the part of an MQTT client the ingester needs.
type mqttClient interface {
	publisher
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// decodeEnvelope parses a payload received on the topic of side. A payload
// may carry the envelope or a bare packet; a side named in either must
// match the topic.
func decodeEnvelope(side earable.Side, payload []byte) (earable.Envelope, error) {
	var head struct {
		Side   earable.Side     `json:"side"`
		Packet *json.RawMessage `json:"packet"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return earable.Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	env := earable.Envelope{Side: head.Side}
	raw := payload
	if head.Packet != nil {
		raw = *head.Packet
	}
	// Without a "packet" key the payload is a bare packet, optionally
	// carrying its own side tag.
	if err := json.Unmarshal(raw, &env.Packet); err != nil {
		return earable.Envelope{}, fmt.Errorf("unmarshal packet: %w", err)
	}

	if env.Side == "" {
		env.Side = side
		return env, nil
	}
	tagged, err := earable.ParseSide(string(env.Side))
	if err != nil {
		return earable.Envelope{}, err
	}
	if tagged != side {
		return earable.Envelope{}, fmt.Errorf("envelope for %s received on %s topic", tagged, side)
	}
	env.Side = tagged
	return env, nil
}

func (in *ingester) handler(side earable.Side) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		env, err := decodeEnvelope(side, msg.Payload())
		if err != nil {
			log.Printf("ingest: %s: %v", msg.Topic(), err)
			return
		}

		pose, moved, err := in.m.Ingest(env)
		if err != nil {
			log.Printf("ingest: %s: %v", msg.Topic(), err)
			return
		}
		if !moved || in.client == nil {
			return
		}

		payload, err := json.Marshal(pose)
		if err != nil {
			log.Printf("ingest: json marshal error (pose): %v", err)
			return
		}
		// Fire and forget; waiting on the token here would stall the callback.
		in.client.Publish(in.cfg.TopicPose(string(side)), 0, true, payload)
	}
}

// subscribe attaches the ingester to both device topics.
func (in *ingester) subscribe() error {
	for _, side := range earable.Sides {
		topic := in.cfg.TopicEarable(string(side))
		token := in.client.Subscribe(topic, 0, in.handler(side))
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("ingest: subscribed to %s (%s device)", topic, side)
	}
	return nil
}

// publishSelection announces the displayed device. The message is retained
// so a display that starts later still picks it up.
func publishSelection(pub publisher, topic string, side earable.Side) {
	payload, err := json.Marshal(sideRequest{Side: string(side)})
	if err != nil {
		log.Printf("ingest: json marshal error (side): %v", err)
		return
	}
	pub.Publish(topic, 0, true, payload)
}
