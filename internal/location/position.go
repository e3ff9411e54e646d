package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// ErrPermissionDenied is returned by a position source the user has not
// allowed to report a position.
var ErrPermissionDenied = errors.New("position permission denied")

// PositionOptions configures a position request.
type PositionOptions struct {
	HighAccuracy bool
	// Timeout bounds the wait for a fix.
	Timeout time.Duration
	// MaximumAge accepts a previously obtained fix up to this age.
	MaximumAge time.Duration
}

// PositionSource is the host's positioning capability.
type PositionSource interface {
	Position(ctx context.Context, opts PositionOptions) (weather.Coordinate, error)
}

// StaticPositionSource always reports the same coordinate.
type StaticPositionSource struct {
	Coordinate weather.Coordinate
}

func (s StaticPositionSource) Position(context.Context, PositionOptions) (weather.Coordinate, error) {
	return s.Coordinate, nil
}

// DeniedPositionSource models a capability the user refused.
type DeniedPositionSource struct{}

func (DeniedPositionSource) Position(context.Context, PositionOptions) (weather.Coordinate, error) {
	return weather.Coordinate{}, ErrPermissionDenied
}

// IPPositionSource approximates the host position from its public IP
// address using an ip-api.com compatible endpoint.
type IPPositionSource struct {
	client *providers.ResilientClient
	log    *zap.Logger
}

// NewIPPositionSource creates a source querying lookupURL.
func NewIPPositionSource(lookupURL string, log *zap.Logger) (*IPPositionSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := providers.NewResilientClient(providers.HTTPClientConfig{
		Name:    "ip-position",
		BaseURL: lookupURL,
		Backoff: providers.BackoffConfig{MaxRetries: 0},
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	return &IPPositionSource{client: client, log: log}, nil
}

// Position implements PositionSource. IP lookups cannot honour
// HighAccuracy; the request is served at city precision regardless.
func (s *IPPositionSource) Position(ctx context.Context, opts PositionOptions) (weather.Coordinate, error) {
	if opts.HighAccuracy {
		s.log.Debug("high accuracy requested; ip lookup provides city precision only")
	}

	body, err := s.client.Get(ctx, "", nil)
	if err != nil {
		return weather.Coordinate{}, err
	}

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Coordinate{}, fmt.Errorf("decode ip position: %w", err)
	}
	if payload.Status != "success" {
		return weather.Coordinate{}, fmt.Errorf("ip position lookup failed: %s", payload.Message)
	}

	coord := weather.Coordinate{Lat: payload.Lat, Lon: payload.Lon}
	if err := coord.Validate(); err != nil {
		return weather.Coordinate{}, err
	}
	return coord, nil
}
