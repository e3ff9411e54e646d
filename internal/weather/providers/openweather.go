package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Options configures an OpenWeatherGateway.
type Options struct {
	APIKey  string
	BaseURL string
	Units   weather.Units
	Timeout time.Duration
	Backoff BackoffConfig

	// Substitutes produces fallback data; a time-seeded generator is used when nil.
	Substitutes *Substitutes
	Logger      *zap.Logger
}

// OpenWeatherGateway fetches current conditions, forecast and air quality
// from OpenWeatherMap. Every operation falls back to substitute data, so the
// returned error is always nil.
type OpenWeatherGateway struct {
	apiKey      string
	units       weather.Units
	current     *ResilientClient
	forecast    *ResilientClient
	airQuality  *ResilientClient
	substitutes *Substitutes
	log         *zap.Logger
}

var _ weather.Gateway = (*OpenWeatherGateway)(nil)

// NewOpenWeatherGateway builds the gateway. Each resource gets its own
// circuit breaker so one failing endpoint does not short-circuit the others.
func NewOpenWeatherGateway(opts Options) (*OpenWeatherGateway, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	units := opts.Units
	if !units.Valid() {
		units = weather.UnitsMetric
	}
	subs := opts.Substitutes
	if subs == nil {
		subs = NewSubstitutes(units, uint64(time.Now().UnixNano()))
	}

	newClient := func(name string) (*ResilientClient, error) {
		return NewResilientClient(HTTPClientConfig{
			Name:    name,
			BaseURL: opts.BaseURL,
			Timeout: opts.Timeout,
			Backoff: opts.Backoff,
			Logger:  log,
		})
	}

	current, err := newClient("openweather-current")
	if err != nil {
		return nil, err
	}
	forecast, err := newClient("openweather-forecast")
	if err != nil {
		return nil, err
	}
	air, err := newClient("openweather-air-pollution")
	if err != nil {
		return nil, err
	}

	return &OpenWeatherGateway{
		apiKey:      opts.APIKey,
		units:       units,
		current:     current,
		forecast:    forecast,
		airQuality:  air,
		substitutes: subs,
		log:         log,
	}, nil
}

// CurrentConditions implements weather.Gateway.
func (g *OpenWeatherGateway) CurrentConditions(ctx context.Context, coord weather.Coordinate) (weather.CurrentConditions, error) {
	return attempt(ctx, g.log.With(zap.Stringer("coordinate", coord)), "current",
		func(ctx context.Context) (weather.CurrentConditions, error) {
			return g.fetchCurrent(ctx, coord)
		},
		func() weather.CurrentConditions { return g.substitutes.Current(coord) },
	), nil
}

// Forecast implements weather.Gateway.
func (g *OpenWeatherGateway) Forecast(ctx context.Context, coord weather.Coordinate) (weather.ForecastSeries, error) {
	return attempt(ctx, g.log.With(zap.Stringer("coordinate", coord)), "forecast",
		func(ctx context.Context) (weather.ForecastSeries, error) {
			return g.fetchForecast(ctx, coord)
		},
		func() weather.ForecastSeries { return g.substitutes.Forecast(coord) },
	), nil
}

// AirQuality implements weather.Gateway.
func (g *OpenWeatherGateway) AirQuality(ctx context.Context, coord weather.Coordinate) (weather.AirQualitySnapshot, error) {
	return attempt(ctx, g.log.With(zap.Stringer("coordinate", coord)), "air_pollution",
		func(ctx context.Context) (weather.AirQualitySnapshot, error) {
			return g.fetchAirQuality(ctx, coord)
		},
		func() weather.AirQualitySnapshot { return g.substitutes.AirQuality(coord) },
	), nil
}

func (g *OpenWeatherGateway) params(coord weather.Coordinate, withUnits bool) map[string]string {
	p := map[string]string{
		"lat":   strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(coord.Lon, 'f', -1, 64),
		"appid": g.apiKey,
	}
	if withUnits {
		p["units"] = string(g.units)
	}
	return p
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

func measurements(main owmMain, wind owmWind, visibility float64, conds []owmCondition) weather.Measurements {
	m := weather.Measurements{
		Temperature: main.Temp,
		FeelsLike:   main.FeelsLike,
		TempMin:     main.TempMin,
		TempMax:     main.TempMax,
		Humidity:    main.Humidity,
		Pressure:    main.Pressure,
		Visibility:  visibility,
		WindSpeed:   wind.Speed,
		WindDeg:     wind.Deg,
		Condition:   mapOpenWeatherCondition(conds),
	}
	if len(conds) > 0 {
		m.Description = conds[0].Description
		m.Icon = conds[0].Icon
	}
	return m
}

func (g *OpenWeatherGateway) fetchCurrent(ctx context.Context, coord weather.Coordinate) (weather.CurrentConditions, error) {
	if g.apiKey == "" {
		return weather.CurrentConditions{}, errMissingAPIKey
	}

	body, err := g.current.Get(ctx, "/weather", g.params(coord, true))
	if err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload struct {
		Weather    []owmCondition `json:"weather"`
		Main       owmMain        `json:"main"`
		Visibility float64        `json:"visibility"`
		Wind       owmWind        `json:"wind"`
		Dt         int64          `json:"dt"`
		Sys        struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
		Timezone int    `json:"timezone"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.CurrentConditions{}, fmt.Errorf("decode current weather: %w", err)
	}

	observed := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		observed = time.Now().UTC()
	}

	return weather.CurrentConditions{
		Measurements:   measurements(payload.Main, payload.Wind, payload.Visibility, payload.Weather),
		Sunrise:        time.Unix(payload.Sys.Sunrise, 0).UTC(),
		Sunset:         time.Unix(payload.Sys.Sunset, 0).UTC(),
		Place:          payload.Name,
		Country:        payload.Sys.Country,
		Coordinate:     coord,
		TimezoneOffset: payload.Timezone,
		ObservedAt:     observed,
		Units:          g.units,
	}, nil
}

func (g *OpenWeatherGateway) fetchForecast(ctx context.Context, coord weather.Coordinate) (weather.ForecastSeries, error) {
	if g.apiKey == "" {
		return weather.ForecastSeries{}, errMissingAPIKey
	}

	body, err := g.forecast.Get(ctx, "/forecast", g.params(coord, true))
	if err != nil {
		return weather.ForecastSeries{}, err
	}

	var payload struct {
		List []struct {
			Dt         int64          `json:"dt"`
			Main       owmMain        `json:"main"`
			Weather    []owmCondition `json:"weather"`
			Wind       owmWind        `json:"wind"`
			Visibility float64        `json:"visibility"`
			Pop        float64        `json:"pop"`
		} `json:"list"`
		City struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"city"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.ForecastSeries{}, fmt.Errorf("decode forecast: %w", err)
	}
	if len(payload.List) == 0 {
		return weather.ForecastSeries{}, fmt.Errorf("forecast: %w", errEmptyPayload)
	}

	entries := make([]weather.ForecastEntry, 0, len(payload.List))
	for _, item := range payload.List {
		entries = append(entries, weather.ForecastEntry{
			Measurements:      measurements(item.Main, item.Wind, item.Visibility, item.Weather),
			Time:              time.Unix(item.Dt, 0).UTC(),
			PrecipProbability: item.Pop,
		})
	}

	return weather.ForecastSeries{
		Place:      payload.City.Name,
		Country:    payload.City.Country,
		Coordinate: coord,
		Units:      g.units,
		Entries:    entries,
	}, nil
}

func (g *OpenWeatherGateway) fetchAirQuality(ctx context.Context, coord weather.Coordinate) (weather.AirQualitySnapshot, error) {
	if g.apiKey == "" {
		return weather.AirQualitySnapshot{}, errMissingAPIKey
	}

	body, err := g.airQuality.Get(ctx, "/air_pollution", g.params(coord, false))
	if err != nil {
		return weather.AirQualitySnapshot{}, err
	}

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components map[string]float64 `json:"components"`
			Dt         int64              `json:"dt"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.AirQualitySnapshot{}, fmt.Errorf("decode air pollution: %w", err)
	}
	if len(payload.List) == 0 {
		return weather.AirQualitySnapshot{}, fmt.Errorf("air pollution: %w", errEmptyPayload)
	}

	latest := payload.List[0]
	components := make(map[weather.Pollutant]float64, len(latest.Components))
	for name, v := range latest.Components {
		components[weather.Pollutant(name)] = v
	}

	index := latest.Main.AQI
	if index < 1 || index > 5 {
		index = weather.IndexFromComponents(components)
	}

	return weather.AirQualitySnapshot{
		Coordinate: coord,
		Index:      index,
		Components: components,
		MeasuredAt: time.Unix(latest.Dt, 0).UTC(),
	}, nil
}

func mapOpenWeatherCondition(items []owmCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
