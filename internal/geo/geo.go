// Package geo holds the small amount of planar geometry the flood aggregator
// needs: a flat-earth bounding box and a ray-casting point-in-ring test.
package geo

import (
	"math"

	"github.com/cchderek/Property-Search-v1/internal/models"
)

// kmPerDegreeLat is the approximate length of one degree of latitude. One
// degree of longitude shrinks with cos(latitude). The approximation is fine
// at the radii this service uses (a few km) at UK latitudes.
const kmPerDegreeLat = 111.0

// BoundingBox is a rectangular lat/lon extent approximating a circular
// search radius.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Bounds computes the bounding box around a center point for a radius in km.
func Bounds(lat, lon, radiusKm float64) BoundingBox {
	latChange := radiusKm / kmPerDegreeLat
	lonChange := radiusKm / (kmPerDegreeLat * math.Cos(toRadians(math.Abs(lat))))

	return BoundingBox{
		MinLon: lon - lonChange,
		MinLat: lat - latChange,
		MaxLon: lon + lonChange,
		MaxLat: lat + latChange,
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// PointInRing reports whether the point (x, y) lies inside the ring using
// ray casting: a horizontal ray from the point toggles an inside flag at
// every qualifying edge crossing, counting the wrap-around edge from the
// last vertex back to the first.
//
// Tie-break: an edge qualifies only when y is strictly above the edge's
// lower vertex and at or below its upper vertex, so a point exactly on a
// ring's minimum-y vertex or bottom edge tests outside. Degenerate or
// self-intersecting rings are not specially handled.
func PointInRing(x, y float64, ring models.Ring) bool {
	n := len(ring)
	if n == 0 {
		return false
	}

	inside := false
	p1x, p1y := ring[0][0], ring[0][1]
	var xIntercept float64

	for i := 1; i <= n; i++ {
		p2x, p2y := ring[i%n][0], ring[i%n][1]
		if y > math.Min(p1y, p2y) && y <= math.Max(p1y, p2y) && x <= math.Max(p1x, p2x) {
			if p1y != p2y {
				xIntercept = (y-p1y)*(p2x-p1x)/(p2y-p1y) + p1x
			}
			if p1x == p2x || x <= xIntercept {
				inside = !inside
			}
		}
		p1x, p1y = p2x, p2y
	}

	return inside
}

// GeometryContains reports whether the point (x, y) falls inside any ring of
// the geometry. Rings are tested independently (an OR across all rings, for
// MultiPolygon across every member polygon's rings), so interior holes count
// as inside rather than being subtracted. Unsupported or malformed
// geometries return false with the decode error for the caller to skip.
func GeometryContains(x, y float64, g models.Geometry) (bool, error) {
	rings, err := g.Rings()
	if err != nil {
		return false, err
	}
	for _, ring := range rings {
		if PointInRing(x, y, ring) {
			return true, nil
		}
	}
	return false, nil
}
