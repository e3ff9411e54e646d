package weather

// Upper bounds (exclusive) of index levels 1-4 per pollutant, in μg/m³.
// Anything at or above the last bound is level 5.
var aqiBands = map[Pollutant][4]float64{
	PollutantSO2:  {20, 80, 250, 350},
	PollutantNO2:  {40, 70, 150, 200},
	PollutantPM10: {20, 50, 100, 200},
	PollutantPM25: {10, 25, 50, 75},
	PollutantO3:   {60, 100, 140, 180},
	PollutantCO:   {4400, 9400, 12400, 15400},
}

// IndexFromComponents derives the ordinal air quality index from pollutant
// concentrations. The worst pollutant decides the index. Components without
// a band are ignored; an empty map yields 1.
func IndexFromComponents(components map[Pollutant]float64) int {
	index := 1
	for p, v := range components {
		bands, ok := aqiBands[p]
		if !ok {
			continue
		}
		level := 5
		for i, upper := range bands {
			if v < upper {
				level = i + 1
				break
			}
		}
		if level > index {
			index = level
		}
	}
	return index
}

// AQILabel returns the human-readable label for an index, defaulting to
// the first level for out-of-range values.
func AQILabel(index int) string {
	switch index {
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return "Good"
	}
}
