package providers

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	forecastSteps = 40
	forecastStep  = 3 * time.Hour
)

// Reference concentrations in μg/m³ that substitute air quality jitters
// around, in a fixed order so seeded generators are reproducible.
var referenceComponents = []struct {
	pollutant weather.Pollutant
	value     float64
}{
	{weather.PollutantCO, 233.4},
	{weather.PollutantNO, 0.01},
	{weather.PollutantNO2, 13.4},
	{weather.PollutantO3, 68.66},
	{weather.PollutantSO2, 0.64},
	{weather.PollutantPM25, 24.73},
	{weather.PollutantPM10, 32.49},
	{weather.PollutantNH3, 4.92},
}

// Substitutes synthesizes plausible, internally consistent data for a
// coordinate when the provider cannot be used. Values are bounded-random and
// always carry the requested coordinate. Safe for concurrent use.
type Substitutes struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	units weather.Units
	now   func() time.Time
}

// NewSubstitutes creates a generator producing values in units. A fixed seed
// gives a reproducible sequence.
func NewSubstitutes(units weather.Units, seed uint64) *Substitutes {
	if !units.Valid() {
		units = weather.UnitsMetric
	}
	return &Substitutes{
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		units: units,
		now:   time.Now,
	}
}

func (s *Substitutes) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *Substitutes) temp(c float64) float64 {
	return weather.FromCelsius(c, s.units)
}

func (s *Substitutes) speed(ms float64) float64 {
	return weather.FromMetersPerSecond(ms, s.units)
}

// Current returns substitute current conditions for coord.
func (s *Substitutes) Current(coord weather.Coordinate) weather.CurrentConditions {
	now := s.now().UTC()

	temp := 20 + s.float()*15
	tempMin := temp - s.float()*5
	tempMax := temp + s.float()*5
	feelsLike := temp - 1 + s.float()*4

	sunrise, sunset := approximateSunTimes(now, coord)

	return weather.CurrentConditions{
		Measurements: weather.Measurements{
			Temperature: s.temp(temp),
			FeelsLike:   s.temp(feelsLike),
			TempMin:     s.temp(tempMin),
			TempMax:     s.temp(tempMax),
			Humidity:    math.Round(40 + s.float()*40),
			Pressure:    math.Round(1000 + s.float()*50),
			Visibility:  10000,
			WindSpeed:   s.speed(3.2),
			WindDeg:     180,
			Condition:   weather.ConditionClear,
			Description: "clear sky",
			Icon:        "01d",
		},
		Sunrise:        sunrise,
		Sunset:         sunset,
		Coordinate:     coord,
		TimezoneOffset: approximateOffset(coord),
		ObservedAt:     now,
		Units:          s.units,
		Simulated:      true,
	}
}

// Forecast returns a substitute 5-day forecast in 3-hour steps for coord.
func (s *Substitutes) Forecast(coord weather.Coordinate) weather.ForecastSeries {
	start := s.now().UTC().Truncate(time.Hour)
	entries := make([]weather.ForecastEntry, 0, forecastSteps)

	for i := 0; i < forecastSteps; i++ {
		x := float64(i)
		temp := 25 + math.Sin(x*0.5)*5
		tempMin := temp - 2 - s.float()
		tempMax := temp + 2 + s.float()

		cond, desc, icon := weather.ConditionClear, "clear sky", "01"
		if i%3 == 0 {
			cond, desc, icon = weather.ConditionCloudy, "few clouds", "02"
		}
		if i%8 < 4 {
			icon += "d"
		} else {
			icon += "n"
		}

		entries = append(entries, weather.ForecastEntry{
			Time:              start.Add(time.Duration(i) * forecastStep),
			PrecipProbability: s.float() * 0.3,
			Measurements: weather.Measurements{
				Temperature: s.temp(temp),
				FeelsLike:   s.temp(temp + 2),
				TempMin:     s.temp(tempMin),
				TempMax:     s.temp(tempMax),
				Humidity:    math.Round(65 + math.Sin(x*0.4)*15),
				Pressure:    math.Round(1013 + math.Sin(x*0.3)*10),
				Visibility:  10000,
				WindSpeed:   s.speed(2 + s.float()*3),
				WindDeg:     180 + s.float()*60,
				Condition:   cond,
				Description: desc,
				Icon:        icon,
			},
		})
	}

	return weather.ForecastSeries{
		Coordinate: coord,
		Units:      s.units,
		Entries:    entries,
		Simulated:  true,
	}
}

// AirQuality returns a substitute air quality snapshot for coord. The index
// is derived from the generated concentrations.
func (s *Substitutes) AirQuality(coord weather.Coordinate) weather.AirQualitySnapshot {
	components := make(map[weather.Pollutant]float64, len(referenceComponents))
	for _, ref := range referenceComponents {
		components[ref.pollutant] = ref.value * (0.9 + s.float()*0.2)
	}

	return weather.AirQualitySnapshot{
		Coordinate: coord,
		Index:      weather.IndexFromComponents(components),
		Components: components,
		MeasuredAt: s.now().UTC(),
		Simulated:  true,
	}
}

// approximateOffset estimates the UTC offset from longitude in whole hours.
func approximateOffset(coord weather.Coordinate) int {
	return int(math.Round(coord.Lon/15)) * 3600
}

// approximateSunTimes places sunrise and sunset six hours either side of
// solar noon for the day of now.
func approximateSunTimes(now time.Time, coord weather.Coordinate) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	noon := midnight.Add(12*time.Hour - time.Duration(coord.Lon/15*float64(time.Hour)))
	return noon.Add(-6 * time.Hour), noon.Add(6 * time.Hour)
}
