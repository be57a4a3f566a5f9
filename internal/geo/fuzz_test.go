package geo

import (
	"math"
	"testing"
)

const (
	baselLat = 47.5596
	baselLon = 7.5886
)

func TestFuzzDeterministic(t *testing.T) {
	h := Identify("Main Street", "Basel", "4051")
	lat1, lon1 := Fuzz(baselLat, baselLon, h)
	lat2, lon2 := Fuzz(baselLat, baselLon, h)
	if lat1 != lat2 || lon1 != lon2 {
		t.Fatalf("identical inputs returned different outputs: (%v,%v) vs (%v,%v)", lat1, lon1, lat2, lon2)
	}
}

func TestFuzzOffsetWithinBounds(t *testing.T) {
	// The offset magnitude must be bounded away from zero and from
	// excessive distortion for every hash value, not just a lucky one.
	hashes := []uint32{
		Identify("Main Street", "Basel", "4051"),
		Identify("Elm Road 3", "Zurich", "8001"),
		Identify("x", "y", "z"),
		0, 1, 0x7FFFFFFF,
	}
	for _, h := range hashes {
		lat, lon := Fuzz(baselLat, baselLon, h)
		d := Distance(baselLat, baselLon, lat, lon)
		if d < minOffsetMeters-1 || d > maxOffsetMeters+1 {
			t.Errorf("hash %d: offset %.1f m outside [%v, %v]", h, d, minOffsetMeters, maxOffsetMeters)
		}
	}
}

func TestFuzzSameOffsetVector(t *testing.T) {
	// Same identity hash at the same latitude shifts any coordinate by
	// the same vector; only the absolute output differs.
	h := Identify("Main Street", "Basel", "4051")
	lat1, lon1 := Fuzz(baselLat, baselLon, h)
	lat2, lon2 := Fuzz(baselLat, baselLon+0.25, h)

	dLat1, dLon1 := lat1-baselLat, lon1-baselLon
	dLat2, dLon2 := lat2-baselLat, lon2-(baselLon+0.25)
	if dLat1 != dLat2 || math.Abs(dLon1-dLon2) > 1e-12 {
		t.Fatalf("offset vector not stable: (%v,%v) vs (%v,%v)", dLat1, dLon1, dLat2, dLon2)
	}
}

func TestFuzzAntiTriangulation(t *testing.T) {
	// Many listings published from one real address must all land on the
	// identical public pin, so averaging the pins across listings yields
	// nothing beyond a single sample.
	h := Identify("Main Street", "Basel", "4051")
	firstLat, firstLon := Fuzz(baselLat, baselLon, h)
	for i := 0; i < 50; i++ {
		lat, lon := Fuzz(baselLat, baselLon, h)
		if lat != firstLat || lon != firstLon {
			t.Fatalf("listing %d got a different public pin: (%v,%v) vs (%v,%v)", i, lat, lon, firstLat, firstLon)
		}
	}
}

func TestFuzzDifferentAddressesDiverge(t *testing.T) {
	h1 := Identify("Main Street", "Basel", "4051")
	h2 := Identify("Main Street", "Basel", "4052")
	lat1, lon1 := Fuzz(baselLat, baselLon, h1)
	lat2, lon2 := Fuzz(baselLat, baselLon, h2)
	if lat1 == lat2 && lon1 == lon2 {
		t.Fatal("distinct address identities produced the same public pin")
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	d := Distance(47.0, 7.0, 48.0, 7.0)
	if math.Abs(d-111_195) > 500 {
		t.Fatalf("Distance over 1° latitude = %.0f m, want ≈111195 m", d)
	}
}
