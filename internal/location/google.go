package location

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// GoogleGeocoder resolves places with the Google Geocoding API. The API
// returns a single best match, so at most one candidate is produced.
type GoogleGeocoder struct {
	geocode func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder configures the process-wide Google API key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		geocode: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

type googleResult struct {
	candidate weather.LocationCandidate
	err       error
}

// Search implements Geocoder. The underlying client has no context support,
// so the lookup runs on its own goroutine and ctx bounds the wait.
func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.LocationCandidate, error) {
	if limit <= 0 {
		return []weather.LocationCandidate{}, nil
	}

	ch := make(chan googleResult, 1)
	go func() {
		loc, err := g.geocode(geocoder.Address{City: query})
		if err != nil {
			ch <- googleResult{err: fmt.Errorf("google geocoding: %w", err)}
			return
		}
		// Reverse lookup only enriches the label; a failure is not fatal.
		addrs, _ := g.reverse(loc)
		ch <- googleResult{candidate: candidateFromGoogle(query, loc, addrs)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if err := r.candidate.Coordinate.Validate(); err != nil {
			return nil, err
		}
		return []weather.LocationCandidate{r.candidate}, nil
	}
}

func candidateFromGoogle(query string, loc geocoder.Location, addrs []geocoder.Address) weather.LocationCandidate {
	c := weather.LocationCandidate{
		Name:       query,
		Coordinate: weather.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude},
	}
	for _, a := range addrs {
		if a.City == "" && a.Country == "" {
			continue
		}
		if a.City != "" {
			c.Name = a.City
		}
		c.State = a.State
		c.Country = a.Country
		break
	}
	return c
}
