package location

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// MinQueryLength is the shortest trimmed query sent to a geocoder.
	MinQueryLength = 2
	// SearchLimit caps the number of geocoder candidates requested.
	SearchLimit = 5
)

// FallbackCoordinate is reported when no device position can be obtained.
var FallbackCoordinate = weather.Coordinate{Lat: 28.6667, Lon: 77.2167}

// DefaultPositionOptions mirrors the options used for device position requests.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   5 * time.Minute,
	}
}

// ProviderConfig wires a Provider.
type ProviderConfig struct {
	// Geocoder may be nil, in which case every search is served from the
	// built-in city list.
	Geocoder Geocoder
	// Source may be nil when the host has no positioning capability.
	Source   PositionSource
	Options  PositionOptions
	Fallback weather.Coordinate
	Fixes    *store.FixStore
	Logger   *zap.Logger
}

// Provider resolves search text and the device position into coordinates.
// Neither operation surfaces a failure to the caller.
type Provider struct {
	geocoder Geocoder
	source   PositionSource
	opts     PositionOptions
	fallback weather.Coordinate
	fixes    *store.FixStore
	log      *zap.Logger
	now      func() time.Time
}

// NewProvider creates a Provider. A zero Fallback uses FallbackCoordinate.
func NewProvider(cfg ProviderConfig) *Provider {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fallback := cfg.Fallback
	if fallback == (weather.Coordinate{}) {
		fallback = FallbackCoordinate
	}
	fixes := cfg.Fixes
	if fixes == nil {
		fixes = store.NewFixStore(1)
	}
	return &Provider{
		geocoder: cfg.Geocoder,
		source:   cfg.Source,
		opts:     cfg.Options,
		fallback: fallback,
		fixes:    fixes,
		log:      log,
		now:      time.Now,
	}
}

// Search returns up to SearchLimit candidates for query. Queries shorter than
// MinQueryLength after trimming yield an empty result without contacting the
// geocoder. Any geocoder failure is answered from the built-in city list.
func (p *Provider) Search(ctx context.Context, query string) []weather.LocationCandidate {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []weather.LocationCandidate{}
	}
	if p.geocoder == nil {
		return FallbackCandidates(query)
	}

	out, err := p.geocode(ctx, query)
	if err != nil {
		p.log.Warn("geocoding failed, using built-in cities",
			zap.String("query", query),
			zap.Error(err),
		)
		return FallbackCandidates(query)
	}
	if len(out) > SearchLimit {
		out = out[:SearchLimit]
	}
	return out
}

func (p *Provider) geocode(ctx context.Context, query string) (out []weather.LocationCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("geocoder panicked: %v", r)
		}
	}()
	out, err = p.geocoder.Search(ctx, query, SearchLimit)
	if err == nil && out == nil {
		out = []weather.LocationCandidate{}
	}
	return out, err
}

type positionResult struct {
	coord weather.Coordinate
	err   error
}

// ResolveCurrentPosition asks the position source for the device location,
// bounded by the configured timeout. A cached fix younger than MaximumAge is
// reused. Denial, timeout, a missing source, or any other failure yields the
// fallback coordinate. The returned error is always nil.
func (p *Provider) ResolveCurrentPosition(ctx context.Context) (weather.Coordinate, error) {
	if p.source == nil {
		p.log.Info("no position source, using fallback coordinate")
		return p.fallback, nil
	}

	if p.opts.MaximumAge > 0 {
		if fix, err := p.fixes.Latest(p.opts.MaximumAge, p.now()); err == nil {
			return fix.Coordinate, nil
		}
	}

	posCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		posCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	ch := make(chan positionResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- positionResult{err: fmt.Errorf("position source panicked: %v", r)}
			}
		}()
		coord, err := p.source.Position(posCtx, p.opts)
		ch <- positionResult{coord: coord, err: err}
	}()

	var res positionResult
	select {
	case <-posCtx.Done():
		res.err = posCtx.Err()
	case res = <-ch:
	}

	if res.err == nil {
		res.err = res.coord.Validate()
	}
	if res.err != nil {
		p.log.Warn("device position unavailable, using fallback coordinate",
			zap.Error(res.err),
		)
		return p.fallback, nil
	}

	p.fixes.Save(store.Fix{Coordinate: res.coord, ObtainedAt: p.now()})
	return res.coord, nil
}
