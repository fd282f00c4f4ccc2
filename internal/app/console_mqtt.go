package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

func formatPose(side earable.Side, p orientation.Pose) string {
	return fmt.Sprintf("[POSE-%s] ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f",
		strings.ToUpper(string(side[:1])), p.Roll, p.Pitch, p.Yaw)
}

// RunConsoleMQTT prints the smoothed poses the dashboard publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, side := range earable.Sides {
		topic := cfg.TopicPose(string(side))
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var p orientation.Pose
			if err := json.Unmarshal(msg.Payload(), &p); err != nil {
				log.Printf("console: pose unmarshal error: %v", err)
				return
			}
			fmt.Println(formatPose(side, p))
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
