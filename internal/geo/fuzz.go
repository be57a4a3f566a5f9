package geo

import "math"

// Offset bounds for the public pin. The offset is large enough that the
// pin never lands on the host's door and small enough that the
// neighborhood framing stays honest.
const (
	minOffsetMeters = 80.0
	maxOffsetMeters = 300.0

	metersPerDegreeLat = 111_320.0
)

// Fuzz derives the publicly shown coordinate for a listing from its real
// coordinate and the host's address identity hash.
//
// The offset vector depends only on the identity hash, never on the
// listing, a timestamp or a randomness source. A host publishing many
// listings from one address therefore shifts every one of them by the
// same vector, and averaging the public pins reveals nothing beyond a
// single sample. Independent per-listing offsets would cancel out under
// averaging and leak the real address.
//
// The hash's low 15 bits drive the offset radius (area-uniform over the
// [min, max] annulus) and the next 16 bits drive the angle. Longitude is
// compensated by cos(lat) so the offset magnitude holds at any latitude.
// Same inputs always return the same output, so listing edits that keep
// the address do not visibly move the pin.
func Fuzz(realLat, realLon float64, identityHash uint32) (publicLat, publicLon float64) {
	u1 := float64(identityHash&0x7FFF) / float64(0x7FFF)
	u2 := float64((identityHash>>15)&0xFFFF) / float64(0xFFFF)

	radius := minOffsetMeters + (maxOffsetMeters-minOffsetMeters)*math.Sqrt(u1)
	angle := 2 * math.Pi * u2

	dLat := radius * math.Cos(angle) / metersPerDegreeLat
	dLon := radius * math.Sin(angle) / (metersPerDegreeLat * math.Cos(realLat*math.Pi/180))

	return realLat + dLat, realLon + dLon
}

// Distance returns the great-circle distance in meters between two
// coordinates (Haversine). Used by tests and by the feed's "near me"
// sorting.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6_371_000.0

	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
