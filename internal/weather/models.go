package weather

import (
	"fmt"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Units is the provider units preference.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
	UnitsStandard Units = "standard"
)

// Valid reports whether u is one of the supported unit systems.
func (u Units) Valid() bool {
	switch u {
	case UnitsMetric, UnitsImperial, UnitsStandard:
		return true
	}
	return false
}

// Coordinate is a latitude/longitude pair. It is a value type and is never
// mutated once obtained.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate lies on Earth's surface.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90,90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180,180]", c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// LocationCandidate is one result of a place-name search.
type LocationCandidate struct {
	Name       string     `json:"name"`
	State      string     `json:"state,omitempty"`
	Country    string     `json:"country"`
	Coordinate Coordinate `json:"coordinate"`
}

// Label builds the display name used when the candidate is selected,
// e.g. "Mumbai, Maharashtra, IN".
func (l LocationCandidate) Label() string {
	parts := []string{l.Name}
	if l.State != "" {
		parts = append(parts, l.State)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

// Measurements are the fields shared by current conditions and forecast steps.
// Temperatures are in the configured Units; wind speed is m/s for metric and
// standard, mph for imperial; visibility is in meters.
type Measurements struct {
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	Visibility  float64   `json:"visibility"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDeg     float64   `json:"windDeg"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// CurrentConditions is a point-in-time snapshot for a coordinate.
type CurrentConditions struct {
	Measurements

	Sunrise        time.Time  `json:"sunrise"`
	Sunset         time.Time  `json:"sunset"`
	Place          string     `json:"place"`
	Country        string     `json:"country"`
	Coordinate     Coordinate `json:"coordinate"`
	TimezoneOffset int        `json:"timezoneOffset"` // seconds east of UTC
	ObservedAt     time.Time  `json:"observedAt"`
	Units          Units      `json:"units"`

	// Simulated marks locally synthesized data.
	Simulated bool `json:"simulated"`
}

// ForecastEntry is one future step of a forecast.
type ForecastEntry struct {
	Measurements

	Time              time.Time `json:"time"`
	PrecipProbability float64   `json:"precipProbability"` // 0..1
}

// ForecastSeries is an ordered sequence of future snapshots, typically 3-hour
// steps covering 5 days. Entries are ordered by Time ascending.
type ForecastSeries struct {
	Place      string          `json:"place"`
	Country    string          `json:"country"`
	Coordinate Coordinate      `json:"coordinate"`
	Units      Units           `json:"units"`
	Entries    []ForecastEntry `json:"entries"`
	Simulated  bool            `json:"simulated"`
}

// Pollutant identifies a concentration reported with an air quality snapshot.
type Pollutant string

const (
	PollutantCO   Pollutant = "co"
	PollutantNO   Pollutant = "no"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantSO2  Pollutant = "so2"
	PollutantPM25 Pollutant = "pm2_5"
	PollutantPM10 Pollutant = "pm10"
	PollutantNH3  Pollutant = "nh3"
)

// AirQualitySnapshot holds an ordinal AQI (1 = good .. 5 = very poor) and the
// pollutant concentrations in μg/m³.
type AirQualitySnapshot struct {
	Coordinate Coordinate            `json:"coordinate"`
	Index      int                   `json:"index"`
	Components map[Pollutant]float64 `json:"components"`
	MeasuredAt time.Time             `json:"measuredAt"`
	Simulated  bool                  `json:"simulated"`
}

// Clone returns a copy that does not share the components map.
func (a AirQualitySnapshot) Clone() AirQualitySnapshot {
	out := a
	if a.Components != nil {
		out.Components = make(map[Pollutant]float64, len(a.Components))
		for k, v := range a.Components {
			out.Components[k] = v
		}
	}
	return out
}

// Clone returns a copy that does not share the entries slice.
func (f ForecastSeries) Clone() ForecastSeries {
	out := f
	if f.Entries != nil {
		out.Entries = append([]ForecastEntry(nil), f.Entries...)
	}
	return out
}
