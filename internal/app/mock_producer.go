package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

// Slower sensors publish once every this many IMU ticks.
const envEvery = 5

// mockEnvelopes builds the packets one device sends on a given tick. IMU
// vectors are converted back into the device frame; RemapIMU is its own
// inverse so applying it here undoes the dashboard's remap.
func mockEnvelopes(side earable.Side, tick int, s orientation.Sample) []earable.Envelope {
	acc := axes(s.Acc)
	gyro := axes(s.Gyro)
	mag := axes(s.Mag)

	imu := earable.RemapIMU(earable.Packet{
		SensorID: earable.SensorIMU,
		ACC:      &acc,
		GYRO:     &gyro,
		MAG:      &mag,
	})
	envs := []earable.Envelope{{Side: side, Packet: imu}}

	if tick%envEvery != 0 {
		return envs
	}

	t := float64(tick) / 50
	phase := 0.0
	if side == earable.Right {
		phase = math.Pi / 3
	}
	heart := 70 + 5*math.Sin(t*0.2+phase)
	beat := math.Sin(2 * math.Pi * heart / 60 * t)

	envs = append(envs,
		earable.Envelope{Side: side, Packet: earable.Packet{
			SensorID: earable.SensorBarometer,
			BARO:     &earable.Baro{Pressure: 101325 + 20*math.Sin(t*0.05+phase)},
			TEMP:     &earable.Temp{Temperature: 34.5 + 0.3*math.Sin(t*0.01)},
		}},
		earable.Envelope{Side: side, Packet: earable.Packet{
			SensorID: earable.SensorPPG,
			PPG:      &earable.PPG{Red: 52000 + 800*beat, Infrared: 61000 + 1100*beat},
		}},
		earable.Envelope{Side: side, Packet: earable.Packet{
			SensorID: earable.SensorPulseOx,
			PULSOX:   &earable.PulseOx{HeartRate: heart, SpO2: 97.5 + 0.8*math.Sin(t*0.03)},
		}},
	)
	return envs
}

func axes(v orientation.Vector3) earable.Axes {
	return earable.Axes{X: v.X, Y: v.Y, Z: v.Z}
}

// RunMockProducer publishes synthetic sensor packets for both earables so
// the dashboard can be run without hardware.
func RunMockProducer() error {
	log.Println("starting earable MQTT producer (mock)")

	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	sources := map[earable.Side]orientation.Source{
		earable.Left:  orientation.NewMockSource(),
		earable.Right: orientation.NewMockSource(),
	}

	ticker := time.NewTicker(time.Duration(cfg.ProducerInterval) * time.Millisecond)
	defer ticker.Stop()

	tick := 0
	for t := range ticker.C {
		for _, side := range earable.Sides {
			s, err := sources[side].Next()
			if err != nil {
				log.Printf("producer: mock source error (%s): %v", side, err)
				continue
			}

			for _, env := range mockEnvelopes(side, tick, s) {
				payload, err := json.Marshal(env)
				if err != nil {
					log.Printf("producer: json marshal error: %v", err)
					continue
				}
				token := client.Publish(cfg.TopicEarable(string(side)), 0, false, payload)
				if token.Wait() && token.Error() != nil {
					log.Printf("producer: MQTT publish error (%s): %v", side, token.Error())
				}
			}
		}

		if tick%(envEvery*50) == 0 {
			log.Printf("%s producer: %d ticks published", t.Format(time.RFC3339), tick)
		}
		tick++
	}
	return nil
}
