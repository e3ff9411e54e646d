package location

import (
	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// fallbackCities is served when the geocoding service cannot be used.
var fallbackCities = []weather.LocationCandidate{
	{Name: "Delhi", State: "Delhi", Country: "IN", Coordinate: weather.Coordinate{Lat: 28.6667, Lon: 77.2167}},
	{Name: "Mumbai", State: "Maharashtra", Country: "IN", Coordinate: weather.Coordinate{Lat: 19.0760, Lon: 72.8777}},
	{Name: "Bangalore", State: "Karnataka", Country: "IN", Coordinate: weather.Coordinate{Lat: 12.9716, Lon: 77.5946}},
	{Name: "Chennai", State: "Tamil Nadu", Country: "IN", Coordinate: weather.Coordinate{Lat: 13.0827, Lon: 80.2707}},
	{Name: "Kolkata", State: "West Bengal", Country: "IN", Coordinate: weather.Coordinate{Lat: 22.5726, Lon: 88.3639}},
}

// FallbackCandidates filters the built-in city list by case-insensitive
// substring match on name or state. The result is never nil.
func FallbackCandidates(query string) []weather.LocationCandidate {
	out := make([]weather.LocationCandidate, 0, len(fallbackCities))
	for _, c := range fallbackCities {
		if common.ContainsFold(c.Name, query) || common.ContainsFold(c.State, query) {
			out = append(out, c)
		}
	}
	return out
}
