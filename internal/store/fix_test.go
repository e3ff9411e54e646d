package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestFixStoreLatest(t *testing.T) {
	s := NewFixStore(2)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Latest(time.Minute, now)
	assert.ErrorIs(t, err, ErrNotFound)

	s.Save(Fix{Coordinate: weather.Coordinate{Lat: 1, Lon: 1}, ObtainedAt: now.Add(-10 * time.Minute)})
	s.Save(Fix{Coordinate: weather.Coordinate{Lat: 2, Lon: 2}, ObtainedAt: now.Add(-2 * time.Minute)})

	fix, err := s.Latest(5*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinate{Lat: 2, Lon: 2}, fix.Coordinate)

	_, err = s.Latest(time.Minute, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFixStoreRetention(t *testing.T) {
	s := NewFixStore(0)
	now := time.Now()
	for i := 0; i < 3; i++ {
		s.Save(Fix{Coordinate: weather.Coordinate{Lat: float64(i)}, ObtainedAt: now})
	}
	assert.Len(t, s.fixes, 1)
	fix, err := s.Latest(time.Second, now)
	require.NoError(t, err)
	assert.Equal(t, 2.0, fix.Coordinate.Lat)
}
