package weather

// FromCelsius converts a Celsius temperature into the given unit system.
func FromCelsius(c float64, u Units) float64 {
	switch u {
	case UnitsImperial:
		return c*9/5 + 32
	case UnitsStandard:
		return c + 273.15
	default:
		return c
	}
}

// FromMetersPerSecond converts a wind speed into the given unit system.
// Only imperial differs (miles per hour).
func FromMetersPerSecond(ms float64, u Units) float64 {
	if u == UnitsImperial {
		return ms * 2.2369362920544
	}
	return ms
}

// TemperatureSymbol returns the display suffix for temperatures.
func TemperatureSymbol(u Units) string {
	switch u {
	case UnitsImperial:
		return "°F"
	case UnitsStandard:
		return "K"
	default:
		return "°C"
	}
}

// SpeedSymbol returns the display suffix for wind speeds.
func SpeedSymbol(u Units) string {
	if u == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// ToCelsius converts a temperature in the given unit system to Celsius.
func ToCelsius(t float64, u Units) float64 {
	switch u {
	case UnitsImperial:
		return (t - 32) * 5 / 9
	case UnitsStandard:
		return t - 273.15
	default:
		return t
	}
}
