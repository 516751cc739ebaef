package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// tileSize anchors the zoom scale: at zoom z one degree of longitude spans
// tileSize*2^z/360 pixels, the convention slippy-map clients use.
const tileSize = 256.0

// ViewState describes the client's map viewport: a fixed center, a zoom
// level, pan offsets in pixels, and the canvas dimensions. Canvas y grows
// downward.
type ViewState struct {
	Center orb.Point // [lng, lat]
	Zoom   float64
	PanX   float64
	PanY   float64
	Width  float64
	Height float64
}

// PixelsPerDegree returns the linear scale of the view.
func (v ViewState) PixelsPerDegree() float64 {
	return tileSize * math.Exp2(v.Zoom) / 360.0
}

// GeographicToCanvas maps WGS84 lat/lng onto canvas pixels for the view.
func GeographicToCanvas(lat, lng float64, v ViewState) (px, py float64) {
	s := v.PixelsPerDegree()
	px = v.Width/2 + (lng-v.Center.Lon())*s + v.PanX
	py = v.Height/2 - (lat-v.Center.Lat())*s + v.PanY
	return px, py
}

// CanvasToGeographic is the exact inverse of GeographicToCanvas.
func CanvasToGeographic(px, py float64, v ViewState) (lat, lng float64) {
	s := v.PixelsPerDegree()
	lng = v.Center.Lon() + (px-v.Width/2-v.PanX)/s
	lat = v.Center.Lat() - (py-v.Height/2-v.PanY)/s
	return lat, lng
}

// BoundsToCanvas maps a geographic bounding box to its canvas rectangle,
// returned as min/max pixel corners (min is the top-left on screen).
func BoundsToCanvas(b Bounds, v ViewState) (minPx, minPy, maxPx, maxPy float64) {
	left, top := GeographicToCanvas(b.MaxLat(), b.MinLng(), v)
	right, bottom := GeographicToCanvas(b.MinLat(), b.MaxLng(), v)
	return left, top, right, bottom
}
