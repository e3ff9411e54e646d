package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"origin", Coordinate{0, 0}, false},
		{"poles and antimeridian", Coordinate{-90, 180}, false},
		{"latitude too high", Coordinate{90.5, 0}, true},
		{"longitude too low", Coordinate{0, -180.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocationCandidateLabel(t *testing.T) {
	assert.Equal(t, "Mumbai, Maharashtra, IN",
		LocationCandidate{Name: "Mumbai", State: "Maharashtra", Country: "IN"}.Label())
	assert.Equal(t, "Paris, FR", LocationCandidate{Name: "Paris", Country: "FR"}.Label())
}

func TestIndexFromComponents(t *testing.T) {
	tests := []struct {
		name       string
		components map[Pollutant]float64
		want       int
	}{
		{"empty", nil, 1},
		{"clean air", map[Pollutant]float64{PollutantPM25: 5, PollutantO3: 30}, 1},
		{"pm2.5 moderate dominates", map[Pollutant]float64{PollutantPM25: 24.73, PollutantPM10: 32.49, PollutantO3: 68.66}, 2},
		{"worst pollutant wins", map[Pollutant]float64{PollutantPM25: 5, PollutantNO2: 160}, 4},
		{"above last band", map[Pollutant]float64{PollutantPM10: 250}, 5},
		{"unbanded pollutant ignored", map[Pollutant]float64{PollutantNH3: 1000}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IndexFromComponents(tt.components))
		})
	}
}

func TestAQILabel(t *testing.T) {
	assert.Equal(t, "Good", AQILabel(1))
	assert.Equal(t, "Moderate", AQILabel(3))
	assert.Equal(t, "Very Poor", AQILabel(5))
	assert.Equal(t, "Good", AQILabel(9))
}

func TestAggregateDays(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := func(h int, temp, pop float64, cond Condition) ForecastEntry {
		return ForecastEntry{
			Time:              base.Add(time.Duration(h) * time.Hour),
			PrecipProbability: pop,
			Measurements: Measurements{
				Temperature: temp,
				TempMin:     temp - 1,
				TempMax:     temp + 1,
				Condition:   cond,
				Description: string(cond),
			},
		}
	}

	entries := []ForecastEntry{
		entry(3, 20, 0.1, ConditionClear),
		entry(6, 22, 0.4, ConditionCloudy),
		entry(9, 24, 0.0, ConditionCloudy),
		entry(27, 10, 0.2, ConditionRain),
		entry(51, 15, 0.0, ConditionClear),
	}

	days := AggregateDays(entries, time.UTC, 0)
	if assert.Len(t, days, 3) {
		assert.Equal(t, base, days[0].Date)
		assert.InDelta(t, 22, days[0].Temperature, 0.001)
		assert.InDelta(t, 19, days[0].TempMin, 0.001)
		assert.InDelta(t, 25, days[0].TempMax, 0.001)
		assert.InDelta(t, 0.4, days[0].PrecipProbability, 0.001)
		assert.Equal(t, ConditionCloudy, days[0].Condition)
		assert.Equal(t, ConditionRain, days[1].Condition)
	}

	assert.Len(t, AggregateDays(entries, time.UTC, 2), 2)
	assert.Empty(t, AggregateDays(nil, nil, 5))
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 32.0, FromCelsius(0, UnitsImperial), 0.001)
	assert.InDelta(t, 273.15, FromCelsius(0, UnitsStandard), 0.001)
	assert.InDelta(t, 25.0, FromCelsius(25, UnitsMetric), 0.001)
	assert.InDelta(t, 22.37, FromMetersPerSecond(10, UnitsImperial), 0.01)
	assert.Equal(t, "°F", TemperatureSymbol(UnitsImperial))
	assert.Equal(t, "m/s", SpeedSymbol(UnitsStandard))
	assert.True(t, UnitsMetric.Valid())
	assert.False(t, Units("kelvin").Valid())
}
