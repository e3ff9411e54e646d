package dashboard

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Phase is the controller's position in the fetch lifecycle.
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhaseLoading    Phase = "loading"
	PhaseReady      Phase = "ready"
	PhaseRefreshing Phase = "refreshing"
	PhaseErrorEmpty Phase = "error"
)

// WeatherDataState is the currently displayed weather. Current, Forecast and
// AirQuality are always replaced together.
type WeatherDataState struct {
	Current    *weather.CurrentConditions  `json:"current,omitempty"`
	Forecast   *weather.ForecastSeries     `json:"forecast,omitempty"`
	AirQuality *weather.AirQualitySnapshot `json:"airQuality,omitempty"`

	Loading      bool   `json:"loading"`
	Error        string `json:"error,omitempty"`
	LocationName string `json:"locationName"`

	// Coordinate is the coordinate the published data was requested for.
	Coordinate weather.Coordinate `json:"coordinate"`
	// CycleID identifies the fetch cycle that produced the data.
	CycleID   string    `json:"cycleId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// HasData reports whether a fetch cycle has ever been published.
func (s WeatherDataState) HasData() bool {
	return s.Current != nil
}

// Phase derives the lifecycle phase from the flags.
func (s WeatherDataState) Phase() Phase {
	switch {
	case s.HasData() && s.Loading:
		return PhaseRefreshing
	case s.HasData():
		return PhaseReady
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseErrorEmpty
	default:
		return PhaseEmpty
	}
}

func (s WeatherDataState) clone() WeatherDataState {
	out := s
	if s.Current != nil {
		c := *s.Current
		out.Current = &c
	}
	if s.Forecast != nil {
		f := s.Forecast.Clone()
		out.Forecast = &f
	}
	if s.AirQuality != nil {
		a := s.AirQuality.Clone()
		out.AirQuality = &a
	}
	return out
}
