package httpapi

import (
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/zsefvlol/timezonemapper"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const forecastDays = 5

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// pollutantNames lists the pollutants shown to users, in display order.
var pollutantNames = []struct {
	pollutant   weather.Pollutant
	name        string
	description string
}{
	{weather.PollutantPM25, "PM2.5", "Fine particles"},
	{weather.PollutantPM10, "PM10", "Coarse particles"},
	{weather.PollutantNO2, "NO₂", "Nitrogen dioxide"},
	{weather.PollutantO3, "O₃", "Ozone"},
	{weather.PollutantSO2, "SO₂", "Sulfur dioxide"},
	{weather.PollutantCO, "CO", "Carbon monoxide"},
}

// DashboardView is the formatted rendering of the dashboard state.
type DashboardView struct {
	Phase         dashboard.Phase `json:"phase"`
	LocationName  string          `json:"locationName"`
	Updating      bool            `json:"updating"`
	ShowErrorView bool            `json:"showErrorView"`
	Error         string          `json:"error,omitempty"`
	Simulated     bool            `json:"simulated"`
	Timezone      string          `json:"timezone,omitempty"`

	Current    *CurrentView    `json:"current,omitempty"`
	Daily      []DailyView     `json:"daily,omitempty"`
	AirQuality *AirQualityView `json:"airQuality,omitempty"`
	Tips       *TipsView       `json:"tips,omitempty"`
}

type CurrentView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feelsLike"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	Visibility  string `json:"visibility"`
	Wind        string `json:"wind"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	LocalTime   string `json:"localTime"`
}

type DailyView struct {
	Label         string `json:"label"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Humidity      string `json:"humidity"`
	Wind          string `json:"wind"`
	Precipitation string `json:"precipitation"`
}

type AirQualityView struct {
	Index      int             `json:"index"`
	Label      string          `json:"label"`
	Pollutants []PollutantView `json:"pollutants"`
}

type PollutantView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

type TipsView struct {
	Clothing string `json:"clothing"`
	Activity string `json:"activity"`
}

// BuildView formats s for display at now.
func BuildView(s dashboard.WeatherDataState, now time.Time) DashboardView {
	v := DashboardView{
		Phase:         s.Phase(),
		LocationName:  s.LocationName,
		Updating:      s.Loading,
		ShowErrorView: s.Phase() == dashboard.PhaseErrorEmpty,
		Error:         s.Error,
	}
	if !s.HasData() {
		return v
	}

	loc, zone := locationFor(*s.Current)
	v.Timezone = zone
	v.Simulated = s.Current.Simulated
	v.Current = currentView(*s.Current, s.LocationName, loc, now)
	v.Tips = tipsView(*s.Current)

	if s.Forecast != nil {
		v.Daily = dailyView(*s.Forecast, loc, now)
		v.Simulated = v.Simulated || s.Forecast.Simulated
	}
	if s.AirQuality != nil {
		v.AirQuality = airQualityView(*s.AirQuality)
		v.Simulated = v.Simulated || s.AirQuality.Simulated
	}
	return v
}

// locationFor resolves the IANA zone of the coordinate, falling back to the
// provider's fixed UTC offset.
func locationFor(c weather.CurrentConditions) (*time.Location, string) {
	name := timezonemapper.LatLngToTimezoneString(c.Coordinate.Lat, c.Coordinate.Lon)
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, name
		}
	}
	return time.FixedZone("", c.TimezoneOffset), ""
}

func currentView(c weather.CurrentConditions, locationName string, loc *time.Location, now time.Time) *CurrentView {
	title := locationName
	if c.Place != "" {
		title = c.Place
		if c.Country != "" {
			title += ", " + c.Country
		}
	}

	return &CurrentView{
		Title:       title,
		Description: c.Description,
		Icon:        c.Icon,
		Temperature: formatTemp(c.Temperature, c.Units),
		FeelsLike:   formatTemp(c.FeelsLike, c.Units),
		High:        formatTemp(c.TempMax, c.Units),
		Low:         formatTemp(c.TempMin, c.Units),
		Humidity:    fmt.Sprintf("%.0f%%", c.Humidity),
		Pressure:    fmt.Sprintf("%.0f hPa", c.Pressure),
		Visibility:  fmt.Sprintf("%.1f km", c.Visibility/1000),
		Wind:        formatWind(c.WindSpeed, c.WindDeg, c.Units),
		Sunrise:     formatClock(c.Sunrise, loc),
		Sunset:      formatClock(c.Sunset, loc),
		LocalTime:   formatClock(now, loc),
	}
}

func dailyView(f weather.ForecastSeries, loc *time.Location, now time.Time) []DailyView {
	days := weather.AggregateDays(f.Entries, loc, forecastDays)
	today := now.In(loc).Format("2006-01-02")

	out := make([]DailyView, 0, len(days))
	for _, d := range days {
		label := d.Date.Format("Mon, Jan 2")
		if d.Date.Format("2006-01-02") == today {
			label = "Today"
		}
		out = append(out, DailyView{
			Label:         label,
			Description:   d.Description,
			Icon:          d.Icon,
			High:          formatTemp(d.TempMax, f.Units),
			Low:           formatTemp(d.TempMin, f.Units),
			Humidity:      fmt.Sprintf("%.0f%%", d.Humidity),
			Wind:          fmt.Sprintf("%.1f %s", d.WindSpeed, weather.SpeedSymbol(f.Units)),
			Precipitation: fmt.Sprintf("%.0f%%", d.PrecipProbability*100),
		})
	}
	return out
}

func airQualityView(a weather.AirQualitySnapshot) *AirQualityView {
	v := &AirQualityView{
		Index:      a.Index,
		Label:      weather.AQILabel(a.Index),
		Pollutants: make([]PollutantView, 0, len(pollutantNames)),
	}
	for _, p := range pollutantNames {
		value, ok := a.Components[p.pollutant]
		if !ok {
			continue
		}
		v.Pollutants = append(v.Pollutants, PollutantView{
			Name:        p.name,
			Description: p.description,
			Value:       fmt.Sprintf("%.1f μg/m³", value),
		})
	}
	return v
}

func tipsView(c weather.CurrentConditions) *TipsView {
	celsius := weather.ToCelsius(c.Temperature, c.Units)

	t := &TipsView{}
	switch {
	case celsius > 25:
		t.Clothing = "Light, breathable clothing recommended. Don't forget sunscreen!"
	case celsius > 15:
		t.Clothing = "Comfortable layers work best for today's temperature."
	default:
		t.Clothing = "Warm clothing recommended. Consider wearing a jacket."
	}

	switch {
	case c.Condition == weather.ConditionRain || common.HasAny(c.Description, "rain"):
		t.Activity = "Perfect day for indoor activities or cozy reading time."
	case celsius > 20 && celsius < 30:
		t.Activity = "Great weather for outdoor activities and sports!"
	default:
		t.Activity = "Consider indoor activities or dress appropriately for outdoor plans."
	}
	return t
}

// CompassPoint maps a bearing in degrees to one of 16 compass points.
func CompassPoint(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compassPoints[int(math.Round(deg/22.5))%16]
}

func formatTemp(t float64, u weather.Units) string {
	return fmt.Sprintf("%.0f%s", math.Round(t), weather.TemperatureSymbol(u))
}

func formatWind(speed, deg float64, u weather.Units) string {
	return strings.TrimSpace(fmt.Sprintf("%.1f %s %s", speed, weather.SpeedSymbol(u), CompassPoint(deg)))
}

func formatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("15:04")
}
