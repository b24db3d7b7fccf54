// Package geo provides the locality gazetteer and great-circle distance
// utilities used by the radius pivot search.
package geo

import "math"

// earthRadiusKM is the mean Earth radius used for haversine distance.
const earthRadiusKM = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Distance returns the great-circle distance between two points in kilometers
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKM * c
}

// WithinRadius reports whether p lies within radiusKM of anchor.
func WithinRadius(anchor, p Point, radiusKM float64) bool {
	return Distance(anchor, p) <= radiusKM
}
