package weather

import "context"

// Gateway abstracts the remote weather provider. Each operation is stateless
// and independently retryable.
//
// Implementations backed by a real provider absorb upstream failures and
// return substitute data with a nil error; the error return exists so that
// callers can treat a failure that escapes the gateway as exceptional.
type Gateway interface {
	CurrentConditions(ctx context.Context, coord Coordinate) (CurrentConditions, error)
	Forecast(ctx context.Context, coord Coordinate) (ForecastSeries, error)
	AirQuality(ctx context.Context, coord Coordinate) (AirQualitySnapshot, error)
}
