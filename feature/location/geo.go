package location

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

const (
	earthRadiusMeters = 6371008.8
	metersPerDegree   = 111320.0

	cellPrecision  = 6
	pointPrecision = 9
)

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance in meters.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Geohash returns the full-precision geohash of p.
func Geohash(p Point) string {
	return geohash.Encode(p.Latitude, p.Longitude)
}

// PointKey is the unique store key of a location: its geohash cut to
// pointPrecision. Cells are smaller than the proximity threshold, so two
// inserts with the same key are always the same place. The converse does not
// hold: points on either side of a cell edge get different keys however
// close they are.
func PointKey(p Point) string {
	return prefix(Geohash(p), pointPrecision)
}

// searchCells returns the geohash cell prefixes covering the box of radius
// meters around p. The corners of the box are enough because cells are far
// larger than the threshold.
func searchCells(p Point, meters float64) []string {
	dLat := meters / metersPerDegree
	cosLat := math.Max(math.Cos(p.Latitude*math.Pi/180), 1e-6)
	dLon := math.Min(meters/(metersPerDegree*cosLat), 180)

	corners := []Point{
		p,
		{clampLat(p.Latitude + dLat), wrapLon(p.Longitude - dLon)},
		{clampLat(p.Latitude + dLat), wrapLon(p.Longitude + dLon)},
		{clampLat(p.Latitude - dLat), wrapLon(p.Longitude - dLon)},
		{clampLat(p.Latitude - dLat), wrapLon(p.Longitude + dLon)},
	}

	seen := make(map[string]struct{}, len(corners))
	cells := make([]string, 0, len(corners))
	for _, c := range corners {
		cell := prefix(Geohash(c), cellPrecision)
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}
		cells = append(cells, cell)
	}
	return cells
}

func prefix(gh string, n int) string {
	if len(gh) <= n {
		return gh
	}
	return gh[:n]
}

func clampLat(v float64) float64 {
	return math.Max(-90, math.Min(90, v))
}

func wrapLon(v float64) float64 {
	for v > 180 {
		v -= 360
	}
	for v < -180 {
		v += 360
	}
	return v
}
