package orientation

import "math"

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// UnwrapAngle returns newAngle shifted by whole turns so that it lies within
// 180° of previousAngle. Both angles are in degrees.
// A difference of exactly ±180 is left as is.
func UnwrapAngle(newAngle, previousAngle float64) float64 {
	d := newAngle - previousAngle
	switch {
	case d > 180:
		return newAngle - 360*math.Ceil((d-180)/360)
	case d < -180:
		return newAngle - 360*math.Floor((d+180)/360)
	}
	return newAngle
}

// WrapAngle maps an angle in degrees into (-180, 180].
func WrapAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
