package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Position sources.
const (
	PositionSourceIP     = "ip"
	PositionSourceStatic = "static"
	PositionSourceDenied = "denied"
	PositionSourceNone   = "none"
)

// Geocoder backends.
const (
	GeocoderOpenWeather = "openweather"
	GeocoderGoogle      = "google"
)

type AppConfig struct {
	OpenWeather OpenWeatherConfig `mapstructure:"openweather"`
	Units       weather.Units     `mapstructure:"units"`
	HTTPTimeout time.Duration     `mapstructure:"http_timeout"`

	// DefaultCity is fetched on startup without user action.
	DefaultCity CityConfig `mapstructure:"default_city"`

	// FallbackCoordinate is used whenever the device position is unavailable.
	FallbackCoordinate CoordinateConfig `mapstructure:"fallback"`

	Position PositionConfig `mapstructure:"position"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`

	SearchDebounce time.Duration `mapstructure:"search_debounce"`

	// RefreshInterval enables periodic refresh of the displayed location (0 = off).
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	Log  LogConfig `mapstructure:"log"`
	Port string    `mapstructure:"port"`
}

type OpenWeatherConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	GeoURL  string `mapstructure:"geo_url"`
}

type CityConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

type CoordinateConfig struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

// PositionConfig mirrors the device positioning options; durations are in
// milliseconds.
type PositionConfig struct {
	Source       string  `mapstructure:"source"`
	HighAccuracy bool    `mapstructure:"high_accuracy"`
	TimeoutMS    int     `mapstructure:"timeout_ms"`
	MaxAgeMS     int     `mapstructure:"max_age_ms"`
	DeviceLat    float64 `mapstructure:"device_lat"`
	DeviceLon    float64 `mapstructure:"device_lon"`
	IPLookupURL  string  `mapstructure:"ip_lookup_url"`
}

type GeocoderConfig struct {
	Backend      string `mapstructure:"backend"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Coordinate returns the city's coordinate.
func (c CityConfig) Coordinate() weather.Coordinate {
	return weather.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

// Coordinate returns the configured coordinate.
func (c CoordinateConfig) Coordinate() weather.Coordinate {
	return weather.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

// Timeout returns the bounded wait for a position fix.
func (p PositionConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// MaxAge returns how old a cached position fix may be.
func (p PositionConfig) MaxAge() time.Duration {
	return time.Duration(p.MaxAgeMS) * time.Millisecond
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		OpenWeather: OpenWeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5",
			GeoURL:  "https://api.openweathermap.org/geo/1.0",
		},
		Units:       weather.UnitsMetric,
		HTTPTimeout: 10 * time.Second,
		DefaultCity: CityConfig{
			Name: "New Delhi, India",
			Lat:  28.6139,
			Lon:  77.2090,
		},
		FallbackCoordinate: CoordinateConfig{Lat: 28.6667, Lon: 77.2167},
		Position: PositionConfig{
			Source:       PositionSourceIP,
			HighAccuracy: true,
			TimeoutMS:    10000,
			MaxAgeMS:     300000,
			IPLookupURL:  "http://ip-api.com/json/",
		},
		Geocoder:       GeocoderConfig{Backend: GeocoderOpenWeather},
		SearchDebounce: 300 * time.Millisecond,
		Log:            LogConfig{Level: "info", Format: "json"},
		Port:           "8080",
	}
}

// Load reads configuration from an optional YAML file and the environment
// (environment wins) with sensible defaults.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	path := getenvDefault("CONFIG_FILE", "weatherdash.yaml")
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. A missing file is not an error.
func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var err error

	cfg.OpenWeather.APIKey = getenvDefault("OPENWEATHER_API_KEY", cfg.OpenWeather.APIKey)
	cfg.OpenWeather.BaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeather.BaseURL)
	cfg.OpenWeather.GeoURL = getenvDefault("OPENWEATHER_GEO_URL", cfg.OpenWeather.GeoURL)
	cfg.Units = weather.Units(strings.ToLower(getenvDefault("UNITS", string(cfg.Units))))

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return err
	}

	cfg.DefaultCity.Name = getenvDefault("DEFAULT_CITY_NAME", cfg.DefaultCity.Name)
	if cfg.DefaultCity.Lat, err = getenvFloat("DEFAULT_CITY_LAT", cfg.DefaultCity.Lat); err != nil {
		return err
	}
	if cfg.DefaultCity.Lon, err = getenvFloat("DEFAULT_CITY_LON", cfg.DefaultCity.Lon); err != nil {
		return err
	}
	if cfg.FallbackCoordinate.Lat, err = getenvFloat("FALLBACK_LAT", cfg.FallbackCoordinate.Lat); err != nil {
		return err
	}
	if cfg.FallbackCoordinate.Lon, err = getenvFloat("FALLBACK_LON", cfg.FallbackCoordinate.Lon); err != nil {
		return err
	}

	cfg.Position.Source = strings.ToLower(getenvDefault("POSITION_SOURCE", cfg.Position.Source))
	if cfg.Position.HighAccuracy, err = getenvBool("POSITION_HIGH_ACCURACY", cfg.Position.HighAccuracy); err != nil {
		return err
	}
	if cfg.Position.TimeoutMS, err = getenvInt("POSITION_TIMEOUT_MS", cfg.Position.TimeoutMS); err != nil {
		return err
	}
	if cfg.Position.MaxAgeMS, err = getenvInt("POSITION_MAX_AGE_MS", cfg.Position.MaxAgeMS); err != nil {
		return err
	}
	cfg.Position.IPLookupURL = getenvDefault("POSITION_IP_LOOKUP_URL", cfg.Position.IPLookupURL)
	if cfg.Position.DeviceLat, err = getenvFloat("DEVICE_LAT", cfg.Position.DeviceLat); err != nil {
		return err
	}
	if cfg.Position.DeviceLon, err = getenvFloat("DEVICE_LON", cfg.Position.DeviceLon); err != nil {
		return err
	}

	cfg.Geocoder.Backend = strings.ToLower(getenvDefault("GEOCODER", cfg.Geocoder.Backend))
	cfg.Geocoder.GoogleAPIKey = getenvDefault("GOOGLE_GEOCODER_API_KEY", cfg.Geocoder.GoogleAPIKey)

	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", cfg.SearchDebounce); err != nil {
		return err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", cfg.RefreshInterval); err != nil {
		return err
	}

	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenvDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	return nil
}

// Validate checks enumerations, coordinates and durations.
func (c *AppConfig) Validate() error {
	if !c.Units.Valid() {
		return fmt.Errorf("unsupported units %q (use metric, imperial or standard)", c.Units)
	}
	if err := c.DefaultCity.Coordinate().Validate(); err != nil {
		return fmt.Errorf("default city: %w", err)
	}
	if c.DefaultCity.Name == "" {
		return fmt.Errorf("default city name is required")
	}
	if err := c.FallbackCoordinate.Coordinate().Validate(); err != nil {
		return fmt.Errorf("fallback coordinate: %w", err)
	}

	switch c.Position.Source {
	case PositionSourceIP, PositionSourceDenied, PositionSourceNone:
	case PositionSourceStatic:
		device := weather.Coordinate{Lat: c.Position.DeviceLat, Lon: c.Position.DeviceLon}
		if err := device.Validate(); err != nil {
			return fmt.Errorf("device position: %w", err)
		}
	default:
		return fmt.Errorf("unsupported position source %q", c.Position.Source)
	}
	if c.Position.TimeoutMS <= 0 {
		return fmt.Errorf("position timeout must be positive")
	}
	if c.Position.MaxAgeMS < 0 {
		return fmt.Errorf("position max age must not be negative")
	}

	switch c.Geocoder.Backend {
	case GeocoderOpenWeather:
	case GeocoderGoogle:
		if c.Geocoder.GoogleAPIKey == "" {
			return fmt.Errorf("google geocoder requires GOOGLE_GEOCODER_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported geocoder %q", c.Geocoder.Backend)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.SearchDebounce < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
