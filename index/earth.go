package index

import "github.com/golang/geo/s1"

// EarthRadiusMeters is the radius of the earth in meters in a spherical
// earth model.
const EarthRadiusMeters = 6371 * 1000

// EarthAngle converts a distance on the earth's surface to an angle.
func EarthAngle(meters float64) s1.Angle {
	return s1.Angle(meters / EarthRadiusMeters)
}

// EarthDistance converts an angle to a distance on the earth's surface in
// meters.
func EarthDistance(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}

// EarthChordAngle converts a surface distance to the chord angle used by
// SearchRadius.
func EarthChordAngle(meters float64) s1.ChordAngle {
	return s1.ChordAngleFromAngle(EarthAngle(meters))
}
