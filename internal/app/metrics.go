package app

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

// Metrics exports ingest counters and the latest pose per device. It
// implements monitor.Observer.
type Metrics struct {
	reg      *prometheus.Registry
	packets  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	angle    *prometheus.GaugeVec
	clients  prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		packets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "earable",
			Subsystem: "ingest",
			Name:      "packets_total",
			Help:      "Decoded packets applied to the chart windows.",
		}, []string{"side", "sensor"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "earable",
			Subsystem: "ingest",
			Name:      "rejected_total",
			Help:      "Packets dropped because they could not be routed.",
		}, []string{"side", "reason"}),
		angle: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "earable",
			Subsystem: "orientation",
			Name:      "angle_degrees",
			Help:      "Smoothed orientation angle.",
		}, []string{"side", "axis"}),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "earable",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket clients.",
		}),
	}
}

func (m *Metrics) PacketHandled(side earable.Side, sensor earable.SensorID) {
	m.packets.WithLabelValues(string(side), sensor.String()).Inc()
}

func (m *Metrics) PacketRejected(side earable.Side, err error) {
	reason := "other"
	switch {
	case errors.Is(err, earable.ErrMissingGroup):
		reason = "missing_group"
	case errors.Is(err, earable.ErrUnknownSensor):
		reason = "unknown_sensor"
	}
	m.rejected.WithLabelValues(string(side), reason).Inc()
}

func (m *Metrics) PoseUpdated(side earable.Side, p orientation.Pose) {
	m.angle.WithLabelValues(string(side), "roll").Set(p.Roll)
	m.angle.WithLabelValues(string(side), "pitch").Set(p.Pitch)
	m.angle.WithLabelValues(string(side), "yaw").Set(p.Yaw)
}

// ClientsChanged records the websocket client count.
func (m *Metrics) ClientsChanged(n int) {
	m.clients.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
