package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Bounds is a geographic bounding box in the [[minLat,minLng],[maxLat,maxLng]]
// shape map clients consume. It marshals to JSON as a pair of [lat,lng] pairs.
type Bounds [2][2]float64

// FallbackBounds is the country-wide extent used when a raster carries no
// usable georeferencing. Repair operations exist to correct it after the fact.
var FallbackBounds = Bounds{{12.1, 41.8}, {19.0, 54.6}}

// NewBounds builds a Bounds, normalizing the corner order.
func NewBounds(minLat, minLng, maxLat, maxLng float64) Bounds {
	return Bounds{
		{math.Min(minLat, maxLat), math.Min(minLng, maxLng)},
		{math.Max(minLat, maxLat), math.Max(minLng, maxLng)},
	}
}

// MinLat returns the southern edge latitude.
func (b Bounds) MinLat() float64 { return b[0][0] }

// MinLng returns the western edge longitude.
func (b Bounds) MinLng() float64 { return b[0][1] }

// MaxLat returns the northern edge latitude.
func (b Bounds) MaxLat() float64 { return b[1][0] }

// MaxLng returns the eastern edge longitude.
func (b Bounds) MaxLng() float64 { return b[1][1] }

// IsZero reports whether the bounds are the zero value.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Bound returns the orb representation ([lng,lat] corner points).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng(), b.MinLat()},
		Max: orb.Point{b.MaxLng(), b.MaxLat()},
	}
}

// Center returns the box center as an orb point ([lng, lat]).
func (b Bounds) Center() orb.Point {
	return b.Bound().Center()
}

// FromBound converts an orb bound back to the client-facing shape.
func FromBound(bd orb.Bound) Bounds {
	return Bounds{
		{bd.Min.Lat(), bd.Min.Lon()},
		{bd.Max.Lat(), bd.Max.Lon()},
	}
}

// BoundsFromProjected converts a projected-corner bounding box (meters) into
// geographic Bounds through the given projection. All four corners are
// projected so rotation introduced by the transform cannot clip the box.
func BoundsFromProjected(minX, minY, maxX, maxY float64, proj Projection) Bounds {
	corners := [4][2]float64{
		{minX, minY}, {minX, maxY}, {maxX, minY}, {maxX, maxY},
	}

	minLat, minLng := math.Inf(1), math.Inf(1)
	maxLat, maxLng := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		lon, lat := proj.ToWGS84(c[0], c[1])
		minLat = math.Min(minLat, lat)
		minLng = math.Min(minLng, lon)
		maxLat = math.Max(maxLat, lat)
		maxLng = math.Max(maxLng, lon)
	}
	return Bounds{{minLat, minLng}, {maxLat, maxLng}}
}
