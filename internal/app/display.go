package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

// displayData holds the latest pose per side and the side the dashboard
// currently shows.
type displayData struct {
	mu       sync.RWMutex
	selected earable.Side
	poses    map[earable.Side]orientation.Pose
}

func newDisplayData(selected earable.Side) *displayData {
	return &displayData{selected: selected, poses: make(map[earable.Side]orientation.Pose)}
}

func (d *displayData) handlePose(side earable.Side, payload []byte) error {
	var p orientation.Pose
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("pose unmarshal: %w", err)
	}
	d.mu.Lock()
	d.poses[side] = p
	d.mu.Unlock()
	return nil
}

func (d *displayData) handleSelection(payload []byte) error {
	var req sideRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("side unmarshal: %w", err)
	}
	side, err := earable.ParseSide(req.Side)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.selected = side
	d.mu.Unlock()
	return nil
}

// current returns the selected side and its latest pose, if any.
func (d *displayData) current() (earable.Side, orientation.Pose, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.poses[d.selected]
	return d.selected, p, ok
}

// addrBus redirects every transaction to addr. The upstream ssd1306 driver
// always talks to 0x3C; modules strapped to 0x3D need this.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// RunDisplay shows the pose of the dashboard's selected side on an SSD1306
// OLED. SELECTED_SIDE is used until the dashboard announces a selection.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	side, err := earable.ParseSide(cfg.SelectedSide)
	if err != nil {
		return err
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(&addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := newDisplayData(side)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, s := range earable.Sides {
		topic := cfg.TopicPose(string(s))
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := data.handlePose(s, msg.Payload()); err != nil {
				log.Printf("display: %v", err)
			}
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("display: subscribed to %s", topic)
	}

	// The dashboard publishes its selection retained; follow it.
	token := client.Subscribe(cfg.TopicSelected, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := data.handleSelection(msg.Payload()); err != nil {
			log.Printf("display: %v", err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: following selection on %s", cfg.TopicSelected)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for range ticker.C {
		shown, pose, have := data.current()
		img := renderPose(shown, pose, have)
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func renderPose(side earable.Side, pose orientation.Pose, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("Earable %s", side))

	if !haveData {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	// Wrap for the readout; the smoothed state itself is unbounded.
	drawer.Dot = fixed.P(0, 30)
	drawer.DrawString(fmt.Sprintf("R: %7.1f", orientation.WrapAngle(pose.Roll)))
	drawer.Dot = fixed.P(0, 45)
	drawer.DrawString(fmt.Sprintf("P: %7.1f", orientation.WrapAngle(pose.Pitch)))
	drawer.Dot = fixed.P(0, 60)
	drawer.DrawString(fmt.Sprintf("Y: %7.1f", orientation.WrapAngle(pose.Yaw)))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Earable")
	drawer.Dot = fixed.P(10, 43)
	drawer.DrawString("Monitor")
	return img
}
