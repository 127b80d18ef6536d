package tourgraph

import "math"

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees. It is the exact inverse of
// ToRadians up to float rounding; stored values stay in degrees so no
// drift accumulates across edits.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Position is a viewer-space point on the sphere, in radians.
type Position struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// ViewerPosition maps a hotspot's authoring coordinates (degrees, in the
// sphere's unrotated frame) into viewer space by adding the sphere's
// initial yaw.
func ViewerPosition(yawDeg, pitchDeg, initialYawDeg float64) Position {
	return Position{
		Yaw:   ToRadians(yawDeg) + ToRadians(initialYawDeg),
		Pitch: ToRadians(pitchDeg),
	}
}
