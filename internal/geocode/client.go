// Package geocode wraps the external geocoding service the engine
// treats as a collaborator. Listing publication resolves an address to
// coordinates and a coarse neighborhood label here; no other part of
// the system talks to the geocoder.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Result is a resolved address.
type Result struct {
	Lat          float64
	Lon          float64
	Neighborhood string
}

// Geocoder resolves a street address to coordinates. Implementations
// must be safe for concurrent use.
type Geocoder interface {
	Geocode(ctx context.Context, street, city, postalCode string) (*Result, error)
}

// Client is a Geocoder backed by a Nominatim-compatible HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// nominatimPlace mirrors the fields we use from a search response.
// Nominatim serializes coordinates as strings.
type nominatimPlace struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		City          string `json:"city"`
	} `json:"address"`
}

// Geocode resolves the address, preferring the most specific
// neighborhood label the service returns and falling back to the city.
func (c *Client) Geocode(ctx context.Context, street, city, postalCode string) (*Result, error) {
	q := url.Values{}
	q.Set("street", street)
	q.Set("city", city)
	q.Set("postalcode", postalCode)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoder decode: %w", err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("geocoder: no match for %q, %q %q", street, postalCode, city)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder lat: %w", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder lon: %w", err)
	}

	neighborhood := places[0].Address.Neighbourhood
	if neighborhood == "" {
		neighborhood = places[0].Address.Suburb
	}
	if neighborhood == "" {
		neighborhood = city
	}
	return &Result{Lat: lat, Lon: lon, Neighborhood: neighborhood}, nil
}
