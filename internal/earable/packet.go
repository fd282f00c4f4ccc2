package earable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

var (
	ErrUnknownSide   = errors.New("unknown earable side")
	ErrUnknownSensor = errors.New("unknown sensor id")
	ErrMissingGroup  = errors.New("packet is missing a sensor group")
)

// Side identifies one of the two paired devices.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Sides lists both devices in display order.
var Sides = []Side{Left, Right}

// ParseSide accepts "left"/"right" in any case, plus "l"/"r".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// SensorID is the sensor identifier the device stamps on every packet.
type SensorID int

const (
	SensorIMU         SensorID = 0 // accelerometer, gyroscope, magnetometer
	SensorBarometer   SensorID = 1 // pressure and temperature
	SensorPPG         SensorID = 3 // red and infrared photoplethysmogram
	SensorPulseOx     SensorID = 4 // heart rate and SpO2
	SensorOpticalTemp SensorID = 5 // skin temperature
)

func (id SensorID) String() string {
	switch id {
	case SensorIMU:
		return "imu"
	case SensorBarometer:
		return "barometer"
	case SensorPPG:
		return "ppg"
	case SensorPulseOx:
		return "pulse_oximeter"
	case SensorOpticalTemp:
		return "optical_temperature"
	}
	return fmt.Sprintf("sensor_%d", int(id))
}

// Axes is a decoded three-axis group.
type Axes struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
	Z float64 `json:"Z"`
}

// Vector converts the group for the orientation estimator.
func (a Axes) Vector() orientation.Vector3 {
	return orientation.Vector3{X: a.X, Y: a.Y, Z: a.Z}
}

type Baro struct {
	Pressure float64 `json:"Pressure"`
}

type Temp struct {
	Temperature float64 `json:"Temperature"`
}

type PPG struct {
	Red      float64 `json:"Red"`
	Infrared float64 `json:"Infrared"`
}

type PulseOx struct {
	HeartRate float64 `json:"HeartRate"`
	SpO2      float64 `json:"SpO2"`
}

// Packet is one decoded sensor packet. Only the groups belonging to
// SensorID are populated.
type Packet struct {
	SensorID  SensorID `json:"sensorId"`
	Timestamp int64    `json:"timestamp,omitempty"` // device clock, ms; informational only

	ACC     *Axes    `json:"ACC,omitempty"`
	GYRO    *Axes    `json:"GYRO,omitempty"`
	MAG     *Axes    `json:"MAG,omitempty"`
	BARO    *Baro    `json:"BARO,omitempty"`
	TEMP    *Temp    `json:"TEMP,omitempty"`
	PPG     *PPG     `json:"PPG,omitempty"`
	PULSOX  *PulseOx `json:"PULSOX,omitempty"`
	OPTTEMP *Temp    `json:"OPTTEMP,omitempty"`
}

// Envelope is the wire payload on MQTT and the serial bridge: a packet
// tagged with the device it came from.
type Envelope struct {
	Side   Side   `json:"side"`
	Packet Packet `json:"packet"`
}

// Validate checks that every group the packet's route needs is present.
func Validate(p Packet) error {
	missing := func(group string) error {
		return fmt.Errorf("%w: %s packet without %s", ErrMissingGroup, p.SensorID, group)
	}

	switch p.SensorID {
	case SensorIMU:
		if p.ACC == nil {
			return missing("ACC")
		}
		if p.GYRO == nil {
			return missing("GYRO")
		}
		if p.MAG == nil {
			return missing("MAG")
		}
	case SensorBarometer:
		if p.BARO == nil {
			return missing("BARO")
		}
		if p.TEMP == nil {
			return missing("TEMP")
		}
	case SensorPPG:
		if p.PPG == nil {
			return missing("PPG")
		}
	case SensorPulseOx:
		if p.PULSOX == nil {
			return missing("PULSOX")
		}
	case SensorOpticalTemp:
		if p.OPTTEMP == nil {
			return missing("OPTTEMP")
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownSensor, int(p.SensorID))
	}
	return nil
}

// RemapIMU converts the device's IMU frame into the frame the charts and the
// estimator use: gyro and magnetometer become (-X, Z, Y), the accelerometer
// is already aligned.
func RemapIMU(p Packet) Packet {
	if p.GYRO != nil {
		g := remap(*p.GYRO)
		p.GYRO = &g
	}
	if p.MAG != nil {
		m := remap(*p.MAG)
		p.MAG = &m
	}
	if p.ACC != nil {
		a := *p.ACC
		p.ACC = &a
	}
	return p
}

func remap(a Axes) Axes {
	return Axes{X: -a.X, Y: a.Z, Z: a.Y}
}
