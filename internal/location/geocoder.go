package location

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// Geocoder resolves free text into candidate places.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]weather.LocationCandidate, error)
}

// OpenWeatherGeocoder uses the OpenWeatherMap direct geocoding endpoint.
type OpenWeatherGeocoder struct {
	apiKey string
	client *providers.ResilientClient
}

// NewOpenWeatherGeocoder creates a geocoder for baseURL (…/geo/1.0).
func NewOpenWeatherGeocoder(baseURL, apiKey string, timeout time.Duration, backoff providers.BackoffConfig, log *zap.Logger) (*OpenWeatherGeocoder, error) {
	client, err := providers.NewResilientClient(providers.HTTPClientConfig{
		Name:    "openweather-geocoding",
		BaseURL: baseURL,
		Timeout: timeout,
		Backoff: backoff,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	return &OpenWeatherGeocoder{apiKey: apiKey, client: client}, nil
}

// Search implements Geocoder.
func (g *OpenWeatherGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.LocationCandidate, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("geocoding api key is not configured")
	}

	body, err := g.client.Get(ctx, "/direct", map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
		"appid": g.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	out := make([]weather.LocationCandidate, 0, len(payload))
	for _, p := range payload {
		c := weather.LocationCandidate{
			Name:       p.Name,
			State:      p.State,
			Country:    p.Country,
			Coordinate: weather.Coordinate{Lat: p.Lat, Lon: p.Lon},
		}
		if c.Coordinate.Validate() != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
