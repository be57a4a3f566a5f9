package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocodeParsesCoordinatesAndNeighborhood(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("street"); got != "Elsässerstrasse 21" {
			t.Errorf("street query = %q", got)
		}
		if got := r.URL.Query().Get("postalcode"); got != "4056" {
			t.Errorf("postalcode query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"47.5697","lon":"7.5724","address":{"neighbourhood":"St. Johann","city":"Basel"}}]`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Geocode(context.Background(), "Elsässerstrasse 21", "Basel", "4056")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Lat != 47.5697 || res.Lon != 7.5724 {
		t.Errorf("coords = (%v, %v)", res.Lat, res.Lon)
	}
	if res.Neighborhood != "St. Johann" {
		t.Errorf("neighborhood = %q", res.Neighborhood)
	}
}

func TestGeocodeFallsBackToSuburbThenCity(t *testing.T) {
	body := `[{"lat":"47.0","lon":"7.0","address":{"suburb":"Gundeldingen","city":"Basel"}}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Geocode(context.Background(), "x", "Basel", "4053")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Neighborhood != "Gundeldingen" {
		t.Errorf("neighborhood = %q, want suburb fallback", res.Neighborhood)
	}

	body = `[{"lat":"47.0","lon":"7.0","address":{"city":"Basel"}}]`
	res, err = NewClient(srv.URL).Geocode(context.Background(), "x", "Basel", "4053")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Neighborhood != "Basel" {
		t.Errorf("neighborhood = %q, want city fallback", res.Neighborhood)
	}
}

func TestGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Geocode(context.Background(), "nowhere", "Basel", "0000"); err == nil {
		t.Fatal("expected error for empty result set")
	}
}
