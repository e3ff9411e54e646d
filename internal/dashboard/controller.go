package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// CurrentLocationLabel is the display name used for device positions.
	CurrentLocationLabel = "Current Location"

	// LocationErrorMessage is published when position resolution fails outright.
	LocationErrorMessage = "Failed to get current location. Please allow location access or search manually."

	defaultFetchErrorMessage = "Failed to fetch weather data"
)

// DefaultCity is the first location shown in a new session.
var DefaultCity = struct {
	Name       string
	Coordinate weather.Coordinate
}{
	Name:       "New Delhi, India",
	Coordinate: weather.Coordinate{Lat: 28.6139, Lon: 77.2090},
}

// Locator resolves the device position.
type Locator interface {
	ResolveCurrentPosition(ctx context.Context) (weather.Coordinate, error)
}

// Options configures a Controller.
type Options struct {
	DefaultName       string
	DefaultCoordinate weather.Coordinate
	Logger            *zap.Logger
}

// Controller owns the displayed weather state. All mutations go through its
// methods; readers get copies.
type Controller struct {
	gateway weather.Gateway
	locator Locator
	opts    Options
	log     *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state WeatherDataState

	subMu  sync.Mutex
	subs   map[int]chan WeatherDataState
	nextID int

	inflight sync.WaitGroup
}

// New creates a Controller with an empty state. Call Start to issue the
// initial fetch.
func New(gateway weather.Gateway, locator Locator, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultCity.Name
		opts.DefaultCoordinate = DefaultCity.Coordinate
	}
	return &Controller{
		gateway: gateway,
		locator: locator,
		opts:    opts,
		log:     opts.Logger,
		now:     time.Now,
		subs:    make(map[int]chan WeatherDataState),
	}
}

// Start marks the state as loading and fetches the default city in the
// background.
func (c *Controller) Start(ctx context.Context) {
	c.update(func(s *WeatherDataState) {
		s.Loading = true
		s.Error = ""
	})
	c.Go(ctx, func(ctx context.Context) error {
		return c.FetchWeatherData(ctx, c.opts.DefaultCoordinate, c.opts.DefaultName)
	})
}

// Go runs op in the background and tracks it for Wait.
func (c *Controller) Go(ctx context.Context, op func(context.Context) error) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := op(ctx); err != nil {
			c.log.Debug("background dashboard operation finished with error", zap.Error(err))
		}
	}()
}

// Wait blocks until operations started with Start or Go have finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// State returns a copy of the current state.
func (c *Controller) State() WeatherDataState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Phase()
}

// Subscribe returns a channel receiving a copy of every published state and a
// function that ends the subscription. Publications are dropped for a
// subscriber whose buffer is full.
func (c *Controller) Subscribe(buf int) (<-chan WeatherDataState, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan WeatherDataState, buf)

	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

type fetchResult struct {
	current    weather.CurrentConditions
	forecast   weather.ForecastSeries
	airQuality weather.AirQualitySnapshot
}

// FetchWeatherData loads all three datasets for coord concurrently and
// publishes them together under name. On failure the previously published data
// is kept and Error describes the failure.
func (c *Controller) FetchWeatherData(ctx context.Context, coord weather.Coordinate, name string) error {
	cycle := uuid.NewString()
	log := c.log.With(
		zap.String("cycle", cycle),
		zap.String("location", name),
		zap.Stringer("coordinate", coord),
	)

	c.update(func(s *WeatherDataState) {
		s.Loading = true
		s.Error = ""
	})
	log.Debug("fetch cycle started")

	res, err := c.fetchAll(ctx, coord)
	if err != nil {
		log.Warn("fetch cycle failed, keeping previous data", zap.Error(err))
		c.update(func(s *WeatherDataState) {
			s.Loading = false
			s.Error = fetchErrorMessage(err)
		})
		return err
	}

	c.update(func(s *WeatherDataState) {
		*s = WeatherDataState{
			Current:      &res.current,
			Forecast:     &res.forecast,
			AirQuality:   &res.airQuality,
			LocationName: name,
			Coordinate:   coord,
			CycleID:      cycle,
			UpdatedAt:    c.now(),
		}
	})
	log.Info("fetch cycle published",
		zap.Bool("simulated", res.current.Simulated),
	)
	return nil
}

// fetchAll issues the three gateway calls without waiting on each other and
// returns once all have completed.
func (c *Controller) fetchAll(ctx context.Context, coord weather.Coordinate) (fetchResult, error) {
	var (
		wg   sync.WaitGroup
		res  fetchResult
		errs [3]error
	)

	run := func(i int, resource string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s: panic: %v", resource, r)
				}
			}()
			if err := fn(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", resource, err)
			}
		}()
	}

	run(0, "current conditions", func() (err error) {
		res.current, err = c.gateway.CurrentConditions(ctx, coord)
		return err
	})
	run(1, "forecast", func() (err error) {
		res.forecast, err = c.gateway.Forecast(ctx, coord)
		return err
	})
	run(2, "air quality", func() (err error) {
		res.airQuality, err = c.gateway.AirQuality(ctx, coord)
		return err
	})

	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return fetchResult{}, err
	}
	return res, nil
}

// ResolveCurrentLocationAndFetch fetches weather for the device position.
func (c *Controller) ResolveCurrentLocationAndFetch(ctx context.Context) error {
	c.update(func(s *WeatherDataState) {
		s.Loading = true
		s.Error = ""
	})

	coord, err := c.resolvePosition(ctx)
	if err != nil {
		c.log.Warn("current location unavailable", zap.Error(err))
		c.update(func(s *WeatherDataState) {
			s.Loading = false
			s.Error = LocationErrorMessage
		})
		return err
	}

	return c.FetchWeatherData(ctx, coord, CurrentLocationLabel)
}

func (c *Controller) resolvePosition(ctx context.Context) (coord weather.Coordinate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolve position: panic: %v", r)
		}
	}()
	if c.locator == nil {
		return weather.Coordinate{}, errors.New("no locator configured")
	}
	return c.locator.ResolveCurrentPosition(ctx)
}

// Retry refreshes the displayed location, or resolves the device position when
// nothing has been displayed yet.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.RLock()
	hasData := c.state.HasData()
	coord, name := c.state.Coordinate, c.state.LocationName
	c.mu.RUnlock()

	if hasData {
		return c.FetchWeatherData(ctx, coord, name)
	}
	return c.ResolveCurrentLocationAndFetch(ctx)
}

// update applies fn to the state and publishes the result. Publication happens
// under the state lock so subscribers observe updates in commit order.
func (c *Controller) update(fn func(*WeatherDataState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.publish(c.state)
}

func (c *Controller) publish(s WeatherDataState) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		select {
		case ch <- s.clone():
		default:
			c.log.Debug("subscriber is slow, dropping state update", zap.Int("subscriber", id))
		}
	}
}

func fetchErrorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return defaultFetchErrorMessage
	}
	return fmt.Sprintf("%s: %v", defaultFetchErrorMessage, err)
}
