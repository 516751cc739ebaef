package geo

import "math"

// WGS84 ellipsoid.
const (
	equatorialRadius = 6378137.0
	flattening       = 1 / 298.257223563

	scaleFactor     = 0.9996
	falseEasting    = 500000.0
	falseNorthing   = 10000000.0 // southern hemisphere only
	degreesPerRad   = 180 / math.Pi
	radiansPerDeg   = math.Pi / 180
	zoneWidthDeg    = 6.0
	firstZoneCenter = -177.0 // central meridian of zone 1
)

// Third flattening and the rectifying radius, precomputed for WGS84.
var (
	n3 = flattening / (2 - flattening)
	// A = a/(1+n) * (1 + n^2/4 + n^4/64)
	rectifyingRadius = equatorialRadius / (1 + n3) * (1 + n3*n3/4 + n3*n3*n3*n3/64)

	alpha = [3]float64{
		n3/2 - 2*n3*n3/3 + 5*n3*n3*n3/16,
		13*n3*n3/48 - 3*n3*n3*n3/5,
		61 * n3 * n3 * n3 / 240,
	}
	beta = [3]float64{
		n3/2 - 2*n3*n3/3 + 37*n3*n3*n3/96,
		n3*n3/48 + n3*n3*n3/15,
		17 * n3 * n3 * n3 / 480,
	}
	delta = [3]float64{
		2*n3 - 2*n3*n3/3 - 2*n3*n3*n3,
		7*n3*n3/3 - 8*n3*n3*n3/5,
		56 * n3 * n3 * n3 / 15,
	}
)

// UTM is a Universal Transverse Mercator projection on the WGS84 ellipsoid.
// It is a pure function of its inputs: coordinates outside the zone's nominal
// longitude band are transformed anyway and yield geometrically meaningless
// but finite results, matching the permissiveness of the rest of the pipeline.
type UTM struct {
	Zone  int
	North bool
}

// EPSG returns the EPSG code of the zone (326xx north, 327xx south).
func (u UTM) EPSG() int {
	if u.North {
		return 32600 + u.Zone
	}
	return 32700 + u.Zone
}

// CentralMeridian returns the zone's central meridian in degrees.
func (u UTM) CentralMeridian() float64 {
	return firstZoneCenter + float64(u.Zone-1)*zoneWidthDeg
}

// FromWGS84 converts geographic lon/lat (degrees) to easting/northing (meters)
// using the Krüger series expansion of the transverse Mercator projection.
func (u UTM) FromWGS84(lon, lat float64) (x, y float64) {
	phi := lat * radiansPerDeg
	lambda := (lon - u.CentralMeridian()) * radiansPerDeg

	sinPhi := math.Sin(phi)
	c := 2 * math.Sqrt(n3) / (1 + n3)
	t := math.Sinh(math.Atanh(sinPhi) - c*math.Atanh(c*sinPhi))

	xiPrime := math.Atan2(t, math.Cos(lambda))
	etaPrime := math.Asinh(math.Sin(lambda) / math.Hypot(t, math.Cos(lambda)))

	xi := xiPrime
	eta := etaPrime
	for j := 0; j < 3; j++ {
		k := 2 * float64(j+1)
		xi += alpha[j] * math.Sin(k*xiPrime) * math.Cosh(k*etaPrime)
		eta += alpha[j] * math.Cos(k*xiPrime) * math.Sinh(k*etaPrime)
	}

	x = falseEasting + scaleFactor*rectifyingRadius*eta
	y = scaleFactor * rectifyingRadius * xi
	if !u.North {
		y += falseNorthing
	}
	return x, y
}

// ToWGS84 converts easting/northing (meters) back to geographic lon/lat
// (degrees). It is the series inverse of FromWGS84.
func (u UTM) ToWGS84(x, y float64) (lon, lat float64) {
	if !u.North {
		y -= falseNorthing
	}

	xi := y / (scaleFactor * rectifyingRadius)
	eta := (x - falseEasting) / (scaleFactor * rectifyingRadius)

	xiPrime := xi
	etaPrime := eta
	for j := 0; j < 3; j++ {
		k := 2 * float64(j+1)
		xiPrime -= beta[j] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaPrime -= beta[j] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiPrime) / math.Cosh(etaPrime))

	phi := chi
	for j := 0; j < 3; j++ {
		k := 2 * float64(j+1)
		phi += delta[j] * math.Sin(k*chi)
	}

	lambda := math.Atan2(math.Sinh(etaPrime), math.Cos(xiPrime))

	lon = u.CentralMeridian() + lambda*degreesPerRad
	lat = phi * degreesPerRad
	return lon, lat
}
