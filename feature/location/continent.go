package location

// Continent names stored on locations.
const (
	NorthAmerica = "North America"
	SouthAmerica = "South America"
	Europe       = "Europe"
	Africa       = "Africa"
	Asia         = "Asia"
	Australia    = "Australia"
	Antarctica   = "Antarctica"
	NoContinent  = "Unknown"
)

// vertex is a polygon corner as (longitude, latitude).
type vertex [2]float64

type region struct {
	name    string
	polygon []vertex
}

// continents is checked in order; the first polygon containing the point wins.
var continents = []region{
	{NorthAmerica, rect(-170, 5, -50, 85)},
	{SouthAmerica, rect(-85, -60, -30, 15)},
	{Europe, rect(-30, 35, 60, 72)},
	{Africa, rect(-20, -40, 60, 35)},
	{Asia, rect(30, 0, 180, 80)},
	{Australia, rect(110, -50, 180, 0)},
	{Antarctica, rect(-180, -90, 180, -60)},
}

func rect(minLon, minLat, maxLon, maxLat float64) []vertex {
	return []vertex{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
	}
}

// Continent classifies a point by ray casting against the continent table.
func Continent(p Point) string {
	for _, r := range continents {
		if contains(r.polygon, p.Longitude, p.Latitude) {
			return r.name
		}
	}
	return NoContinent
}

// contains is the even-odd ray casting test. Points on the lower or left
// edge count as inside.
func contains(poly []vertex, x, y float64) bool {
	inside := false
	j := len(poly) - 1
	for i := range poly {
		xi, yi := poly[i][0], poly[i][1]
		xj, yj := poly[j][0], poly[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
