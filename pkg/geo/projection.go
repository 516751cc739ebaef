package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection converts between a source CRS and WGS84 geographic coordinates.
type Projection interface {
	// ToWGS84 converts source CRS coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to source CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG returns the EPSG code for this projection.
	EPSG() int
}

// DefaultZone is the UTM zone covering the deployment region.
const DefaultZone = 38

// DefaultCRS identifies source data that carried no georeferencing of its own.
const DefaultCRS = "EPSG:32638"

// ForEPSG returns a Projection for the given EPSG code. UTM WGS84 zones
// (326xx north, 327xx south) are supported alongside plain 4326. Returns nil
// for anything else.
func ForEPSG(epsg int) Projection {
	switch {
	case epsg == 4326:
		return WGS84Identity{}
	case epsg >= 32601 && epsg <= 32660:
		return UTM{Zone: epsg - 32600, North: true}
	case epsg >= 32701 && epsg <= 32760:
		return UTM{Zone: epsg - 32700, North: false}
	default:
		return nil
	}
}

// ForCRS resolves a CRS identifier of the form "EPSG:32638" to a Projection.
// Unknown or empty identifiers fall back to the default UTM zone, matching how
// ungeoreferenced uploads are treated.
func ForCRS(crs string) Projection {
	code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(crs)), "EPSG:"))
	if err == nil {
		if p := ForEPSG(code); p != nil {
			return p
		}
	}
	return UTM{Zone: DefaultZone, North: true}
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (WGS84Identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (WGS84Identity) EPSG() int                                 { return 4326 }

// CRSName formats an EPSG code as the identifier stored on layer records.
func CRSName(epsg int) string {
	return fmt.Sprintf("EPSG:%d", epsg)
}
