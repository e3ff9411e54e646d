package weather

import "time"

// DailySummary condenses the forecast steps of one calendar day.
type DailySummary struct {
	Date              time.Time `json:"date"`
	Temperature       float64   `json:"temperature"`
	TempMin           float64   `json:"tempMin"`
	TempMax           float64   `json:"tempMax"`
	FeelsLike         float64   `json:"feelsLike"`
	Humidity          float64   `json:"humidity"`
	Pressure          float64   `json:"pressure"`
	WindSpeed         float64   `json:"windSpeed"`
	PrecipProbability float64   `json:"precipProbability"`
	Condition         Condition `json:"condition"`
	Description       string    `json:"description"`
	Icon              string    `json:"icon"`
}

// AggregateDays groups forecast entries by calendar day in loc and combines
// each group into a DailySummary. Numeric fields are averaged, min/max are
// taken across the day, precipitation probability is the day's maximum and
// the condition is selected by majority (first seen wins a tie).
// At most days summaries are returned; days <= 0 means no limit.
func AggregateDays(entries []ForecastEntry, loc *time.Location, days int) []DailySummary {
	if loc == nil {
		loc = time.UTC
	}

	type bucket struct {
		date    time.Time
		entries []ForecastEntry
	}

	var order []string
	buckets := make(map[string]*bucket)
	for _, e := range entries {
		ts := e.Time.In(loc)
		key := ts.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)}
			buckets[key] = b
			order = append(order, key)
		}
		b.entries = append(b.entries, e)
	}

	out := make([]DailySummary, 0, len(order))
	for _, key := range order {
		if days > 0 && len(out) >= days {
			break
		}
		b := buckets[key]
		out = append(out, summarize(b.date, b.entries))
	}
	return out
}

func summarize(date time.Time, entries []ForecastEntry) DailySummary {
	var (
		sumTemp     float64
		sumFeels    float64
		sumHumidity float64
		sumPressure float64
		sumWind     float64
	)

	first := entries[0]
	s := DailySummary{
		Date:    date,
		TempMin: first.TempMin,
		TempMax: first.TempMax,
	}

	conditionCounts := make(map[Condition]int)
	var conditionOrder []Condition
	representative := make(map[Condition]ForecastEntry)

	for _, e := range entries {
		sumTemp += e.Temperature
		sumFeels += e.FeelsLike
		sumHumidity += e.Humidity
		sumPressure += e.Pressure
		sumWind += e.WindSpeed

		if e.TempMin < s.TempMin {
			s.TempMin = e.TempMin
		}
		if e.TempMax > s.TempMax {
			s.TempMax = e.TempMax
		}
		if e.PrecipProbability > s.PrecipProbability {
			s.PrecipProbability = e.PrecipProbability
		}

		if _, seen := conditionCounts[e.Condition]; !seen {
			conditionOrder = append(conditionOrder, e.Condition)
			representative[e.Condition] = e
		}
		conditionCounts[e.Condition]++
	}

	n := float64(len(entries))
	s.Temperature = sumTemp / n
	s.FeelsLike = sumFeels / n
	s.Humidity = sumHumidity / n
	s.Pressure = sumPressure / n
	s.WindSpeed = sumWind / n

	// Pick majority condition.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range conditionOrder {
		if conditionCounts[cond] > bestCount {
			bestCount = conditionCounts[cond]
			bestCond = cond
		}
	}
	s.Condition = bestCond
	if rep, ok := representative[bestCond]; ok {
		s.Description = rep.Description
		s.Icon = rep.Icon
	}

	return s
}
