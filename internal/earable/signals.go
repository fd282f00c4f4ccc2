package earable

import (
	"fmt"

	"github.com/relabs-tech/earable_monitor/internal/series"
)

// Signal names one chart.
type Signal string

const (
	Accelerometer Signal = "accelerometer"
	Gyroscope     Signal = "gyroscope"
	Magnetometer  Signal = "magnetometer"
	Pressure      Signal = "pressure"
	Temperature   Signal = "temperature"
	HeartRate     Signal = "heart_rate"
	SpO2          Signal = "spo2"
	PPGSignal     Signal = "ppg"
)

// Chart is the static description of one signal's chart.
type Chart struct {
	Signal   Signal           `json:"signal"`
	Title    string           `json:"title"`
	Unit     string           `json:"unit"`
	Channels []series.Channel `json:"channels"`
}

// Charts lists every chart in display order.
var Charts = []Chart{
	{Accelerometer, "Accelerometer", "m/s²", []series.Channel{
		{Label: "X", Color: "#FF6347"},
		{Label: "Y", Color: "#3CB371"},
		{Label: "Z", Color: "#1E90FF"},
	}},
	{Gyroscope, "Gyroscope", "°/s", []series.Channel{
		{Label: "X", Color: "#FFD700"},
		{Label: "Y", Color: "#FF4500"},
		{Label: "Z", Color: "#D8BFD8"},
	}},
	{Magnetometer, "Magnetometer", "µT", []series.Channel{
		{Label: "X", Color: "#F08080"},
		{Label: "Y", Color: "#98FB98"},
		{Label: "Z", Color: "#ADD8E6"},
	}},
	{Pressure, "Pressure", "Pa", []series.Channel{
		{Label: "pressure", Color: "#32CD32"},
	}},
	{Temperature, "Temperature", "°C", []series.Channel{
		{Label: "temperature", Color: "#FFA07A"},
	}},
	{HeartRate, "Heart rate", "bpm", []series.Channel{
		{Label: "heart rate", Color: "#FF6347"},
	}},
	{SpO2, "SpO2", "%", []series.Channel{
		{Label: "blood oxygen saturation", Color: "#ADD8E6"},
	}},
	{PPGSignal, "PPG", "amplitude", []series.Channel{
		{Label: "PPG (red)", Color: "#FF0000"},
		{Label: "PPG (infrared)", Color: "#800000"},
	}},
}

// ChartFor returns the chart definition of s.
func ChartFor(s Signal) (Chart, bool) {
	for _, c := range Charts {
		if c.Signal == s {
			return c, true
		}
	}
	return Chart{}, false
}

// ParseSignal validates a signal name.
func ParseSignal(s string) (Signal, error) {
	if _, ok := ChartFor(Signal(s)); !ok {
		return "", fmt.Errorf("unknown signal %q", s)
	}
	return Signal(s), nil
}

// Update is one chart push produced by a packet.
type Update struct {
	Signal Signal
	Values []float64
}

// Route declares which charts a sensor feeds and how to extract their values.
type Route struct {
	Signals     []Signal
	Orientation bool // the packet also drives the orientation estimator
	extract     func(Packet) []Update
}

// Routes maps every known sensor to the charts it updates. Optical
// temperature is decoded but has no chart: its sample rate differs from the
// barometer's, so it cannot share the temperature window.
var Routes = map[SensorID]Route{
	SensorIMU: {
		Signals:     []Signal{Accelerometer, Gyroscope, Magnetometer},
		Orientation: true,
		extract: func(p Packet) []Update {
			return []Update{
				{Accelerometer, []float64{p.ACC.X, p.ACC.Y, p.ACC.Z}},
				{Gyroscope, []float64{p.GYRO.X, p.GYRO.Y, p.GYRO.Z}},
				{Magnetometer, []float64{p.MAG.X, p.MAG.Y, p.MAG.Z}},
			}
		},
	},
	SensorBarometer: {
		Signals: []Signal{Pressure, Temperature},
		extract: func(p Packet) []Update {
			return []Update{
				{Pressure, []float64{p.BARO.Pressure}},
				{Temperature, []float64{p.TEMP.Temperature}},
			}
		},
	},
	SensorPPG: {
		Signals: []Signal{PPGSignal},
		extract: func(p Packet) []Update {
			return []Update{{PPGSignal, []float64{p.PPG.Red, p.PPG.Infrared}}}
		},
	},
	SensorPulseOx: {
		Signals: []Signal{HeartRate, SpO2},
		extract: func(p Packet) []Update {
			return []Update{
				{HeartRate, []float64{p.PULSOX.HeartRate}},
				{SpO2, []float64{p.PULSOX.SpO2}},
			}
		},
	},
	SensorOpticalTemp: {
		extract: func(Packet) []Update { return nil },
	},
}

// Updates validates p and returns the chart pushes its route declares.
func Updates(p Packet) (Route, []Update, error) {
	if err := Validate(p); err != nil {
		return Route{}, nil, err
	}
	r := Routes[p.SensorID]
	return r, r.extract(p), nil
}
