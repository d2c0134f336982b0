// Package geo resolves free-text location names to coordinates using a
// fallback chain of free providers. Resolution is best-effort: every failure
// path degrades to the next tier and finally to a fixed default, so callers
// never have to handle an error.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/models"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultGeoJSURL     = "https://get.geojs.io/v1/ip/geo.json"
	userAgent           = "MissingPersonApp/1.0"
	providerTimeout     = 5 * time.Second
)

// Default coordinates when every provider fails (New Delhi)
const (
	DefaultLatitude  = 28.6139
	DefaultLongitude = 77.2090
)

// Coordinates is a resolved point plus the provider that produced it
type Coordinates struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Source      string   `json:"source"`
	Accuracy    *float64 `json:"accuracy,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
}

// Resolver turns location text into coordinates
type Resolver struct {
	NominatimURL string
	GeoJSURL     string
	client       *http.Client
}

// NewResolver creates a resolver against the public provider endpoints
func NewResolver() *Resolver {
	return &Resolver{
		NominatimURL: defaultNominatimURL,
		GeoJSURL:     defaultGeoJSURL,
		client:       &http.Client{Timeout: providerTimeout},
	}
}

// Resolve returns best-effort coordinates for locationName. The chain is
// Nominatim free-text search, then GeoJS IP lookup (which locates the server,
// not the input; kept only as a last resort before the default), then the
// fixed default point.
func (r *Resolver) Resolve(ctx context.Context, locationName string) Coordinates {
	if coords, ok := r.nominatim(ctx, locationName); ok {
		zap.S().Debugw("resolved location via nominatim", "location", locationName, "lat", coords.Lat, "lng", coords.Lng)
		return coords
	}

	if coords, ok := r.geojs(ctx); ok {
		zap.S().Debugw("resolved location via geojs fallback", "location", locationName, "lat", coords.Lat, "lng", coords.Lng)
		return coords
	}

	zap.S().Warnw("all geocoding providers failed, using default coordinates", "location", locationName)
	return Coordinates{Lat: DefaultLatitude, Lng: DefaultLongitude, Source: models.CoordSourceDefault}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r *Resolver) nominatim(ctx context.Context, locationName string) (Coordinates, bool) {
	u := r.NominatimURL + "?format=json&limit=1&q=" + url.QueryEscape(locationName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		zap.S().Warnw("nominatim request failed", "error", err)
		return Coordinates{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.S().Warnw("nominatim returned non-200", "status", resp.StatusCode)
		return Coordinates{}, false
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return Coordinates{}, false
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return Coordinates{}, false
	}

	return Coordinates{
		Lat:         lat,
		Lng:         lng,
		Source:      models.CoordSourceNominatim,
		DisplayName: results[0].DisplayName,
	}, true
}

type geojsResult struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

func (r *Resolver) geojs(ctx context.Context) (Coordinates, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.GeoJSURL, nil)
	if err != nil {
		return Coordinates{}, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		zap.S().Warnw("geojs request failed", "error", err)
		return Coordinates{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, false
	}

	var result geojsResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Coordinates{}, false
	}

	lat, errLat := strconv.ParseFloat(result.Latitude, 64)
	lng, errLng := strconv.ParseFloat(result.Longitude, 64)
	if errLat != nil || errLng != nil {
		return Coordinates{}, false
	}

	return Coordinates{Lat: lat, Lng: lng, Source: models.CoordSourceGeoJS}, true
}

// ValidCoordinates reports whether lat/lng fall inside the WGS84 bounds
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
