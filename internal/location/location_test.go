package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

type countingGeocoder struct {
	mu    sync.Mutex
	calls int
	out   []weather.LocationCandidate
	err   error
	panic bool
}

func (g *countingGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.LocationCandidate, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.panic {
		panic("boom")
	}
	return g.out, g.err
}

func (g *countingGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestSearch_ShortQueryMakesNoCall(t *testing.T) {
	g := &countingGeocoder{}
	p := NewProvider(ProviderConfig{Geocoder: g})

	for _, q := range []string{"", " ", "M", "  M  "} {
		res := p.Search(context.Background(), q)
		require.NotNil(t, res)
		assert.Empty(t, res, "query %q", q)
	}
	assert.Equal(t, 0, g.Calls())
}

func TestSearch_TwoRunesHitsGeocoder(t *testing.T) {
	want := []weather.LocationCandidate{{Name: "Mumbai", Country: "IN", Coordinate: weather.Coordinate{Lat: 19.07, Lon: 72.87}}}
	g := &countingGeocoder{out: want}
	p := NewProvider(ProviderConfig{Geocoder: g})

	res := p.Search(context.Background(), "Mu")
	assert.Equal(t, want, res)
	assert.Equal(t, 1, g.Calls())
}

func TestSearch_FallbackOnGeocoderError(t *testing.T) {
	g := &countingGeocoder{err: errors.New("network down")}
	p := NewProvider(ProviderConfig{Geocoder: g})

	res := p.Search(context.Background(), "Mumbai")
	require.Len(t, res, 1)
	assert.Equal(t, "Mumbai", res[0].Name)
	assert.Equal(t, "Maharashtra", res[0].State)
	assert.Equal(t, "IN", res[0].Country)
	assert.InDelta(t, 19.0760, res[0].Coordinate.Lat, 1e-9)
	assert.InDelta(t, 72.8777, res[0].Coordinate.Lon, 1e-9)
}

func TestSearch_FallbackMatchesState(t *testing.T) {
	p := NewProvider(ProviderConfig{})

	res := p.Search(context.Background(), "tamil")
	require.Len(t, res, 1)
	assert.Equal(t, "Chennai", res[0].Name)
}

func TestSearch_FallbackNoMatchIsEmpty(t *testing.T) {
	p := NewProvider(ProviderConfig{Geocoder: &countingGeocoder{err: errors.New("down")}})

	res := p.Search(context.Background(), "Zzzz")
	require.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSearch_GeocoderPanicFallsBack(t *testing.T) {
	p := NewProvider(ProviderConfig{Geocoder: &countingGeocoder{panic: true}})

	res := p.Search(context.Background(), "Kolkata")
	require.Len(t, res, 1)
	assert.Equal(t, "Kolkata", res[0].Name)
}

func TestSearch_EmptyGeocoderResultIsNotFallback(t *testing.T) {
	p := NewProvider(ProviderConfig{Geocoder: &countingGeocoder{}})

	res := p.Search(context.Background(), "Delhi")
	require.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSearch_CapsResults(t *testing.T) {
	var many []weather.LocationCandidate
	for i := 0; i < 8; i++ {
		many = append(many, weather.LocationCandidate{Name: "Springfield"})
	}
	p := NewProvider(ProviderConfig{Geocoder: &countingGeocoder{out: many}})

	assert.Len(t, p.Search(context.Background(), "Springfield"), SearchLimit)
}

type slowSource struct{}

func (slowSource) Position(ctx context.Context, _ PositionOptions) (weather.Coordinate, error) {
	<-ctx.Done()
	return weather.Coordinate{}, ctx.Err()
}

type countingSource struct {
	calls int
	coord weather.Coordinate
}

func (s *countingSource) Position(context.Context, PositionOptions) (weather.Coordinate, error) {
	s.calls++
	return s.coord, nil
}

func TestResolveCurrentPosition(t *testing.T) {
	granted := weather.Coordinate{Lat: 40.7128, Lon: -74.0060}

	tests := []struct {
		name   string
		source PositionSource
		want   weather.Coordinate
	}{
		{"granted", StaticPositionSource{Coordinate: granted}, granted},
		{"denied", DeniedPositionSource{}, FallbackCoordinate},
		{"no capability", nil, FallbackCoordinate},
		{"timeout", slowSource{}, FallbackCoordinate},
		{"invalid fix", StaticPositionSource{Coordinate: weather.Coordinate{Lat: 120}}, FallbackCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultPositionOptions()
			opts.Timeout = 20 * time.Millisecond
			p := NewProvider(ProviderConfig{Source: tt.source, Options: opts})

			got, err := p.ResolveCurrentPosition(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCurrentPosition_ReusesRecentFix(t *testing.T) {
	src := &countingSource{coord: weather.Coordinate{Lat: 51.5, Lon: -0.12}}
	opts := DefaultPositionOptions()
	p := NewProvider(ProviderConfig{Source: src, Options: opts, Fixes: store.NewFixStore(4)})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_, err := p.ResolveCurrentPosition(context.Background())
	require.NoError(t, err)
	_, err = p.ResolveCurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(opts.MaximumAge + time.Second)
	got, err := p.ResolveCurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.coord, got)
	assert.Equal(t, 2, src.calls)
}

func TestIPPositionSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","lat":48.8566,"lon":2.3522}`))
	}))
	defer srv.Close()

	src, err := NewIPPositionSource(srv.URL, nil)
	require.NoError(t, err)

	got, err := src.Position(context.Background(), DefaultPositionOptions())
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinate{Lat: 48.8566, Lon: 2.3522}, got)
}

func TestIPPositionSource_FailStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	src, err := NewIPPositionSource(srv.URL, nil)
	require.NoError(t, err)

	_, err = src.Position(context.Background(), DefaultPositionOptions())
	assert.ErrorContains(t, err, "private range")
}

func TestOpenWeatherGeocoder(t *testing.T) {
	var gotQuery, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[
			{"name":"London","lat":51.5073,"lon":-0.1276,"country":"GB","state":"England"},
			{"name":"Broken","lat":500,"lon":0,"country":"XX"}
		]`))
	}))
	defer srv.Close()

	g, err := NewOpenWeatherGeocoder(srv.URL, "key", time.Second, providers.BackoffConfig{}, nil)
	require.NoError(t, err)

	res, err := g.Search(context.Background(), "London", SearchLimit)
	require.NoError(t, err)
	assert.Equal(t, "London", gotQuery)
	assert.Equal(t, "5", gotLimit)
	require.Len(t, res, 1)
	assert.Equal(t, "London, England, GB", res[0].Label())
}

func TestOpenWeatherGeocoder_MissingKey(t *testing.T) {
	g, err := NewOpenWeatherGeocoder("http://127.0.0.1:1", "", time.Second, providers.BackoffConfig{}, nil)
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "London", SearchLimit)
	assert.Error(t, err)
}

type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (r *recordingSearcher) Search(ctx context.Context, query string) []weather.LocationCandidate {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return FallbackCandidates(query)
}

func TestSuggester_DeliversOnlyLatest(t *testing.T) {
	rs := &recordingSearcher{}
	delivered := make(chan string, 4)
	s := NewSuggester(rs, 30*time.Millisecond, func(q string, _ []weather.LocationCandidate) {
		delivered <- q
	})
	defer s.Close()

	s.Type("Mu")
	s.Type("Mum")
	s.Type("Mumb")

	select {
	case q := <-delivered:
		assert.Equal(t, "Mumb", q)
	case <-time.After(time.Second):
		t.Fatal("no suggestion delivered")
	}

	select {
	case q := <-delivered:
		t.Fatalf("unexpected extra delivery %q", q)
	case <-time.After(100 * time.Millisecond):
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, []string{"Mumb"}, rs.queries)
}

func TestSuggester_CloseStopsDelivery(t *testing.T) {
	delivered := make(chan string, 1)
	s := NewSuggester(&recordingSearcher{}, 20*time.Millisecond, func(q string, _ []weather.LocationCandidate) {
		delivered <- q
	})

	s.Type("Delhi")
	s.Close()

	select {
	case q := <-delivered:
		t.Fatalf("unexpected delivery %q", q)
	case <-time.After(80 * time.Millisecond):
	}
}

// gatedSearcher holds lookups for one query until release is closed.
type gatedSearcher struct {
	hold     string
	started  chan struct{}
	release  chan struct{}
	canceled chan struct{}
}

func (g *gatedSearcher) Search(ctx context.Context, query string) []weather.LocationCandidate {
	if query == g.hold {
		close(g.started)
		<-ctx.Done()
		close(g.canceled)
		<-g.release
	}
	return FallbackCandidates(query)
}

func TestSuggester_DropsSupersededLookup(t *testing.T) {
	gs := &gatedSearcher{
		hold:     "Mu",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		canceled: make(chan struct{}),
	}

	var mu sync.Mutex
	var delivered []string
	s := NewSuggester(gs, 10*time.Millisecond, func(q string, _ []weather.LocationCandidate) {
		mu.Lock()
		delivered = append(delivered, q)
		mu.Unlock()
	})
	defer s.Close()

	s.Type("Mu")
	select {
	case <-gs.started:
	case <-time.After(time.Second):
		t.Fatal("lookup for Mu did not start")
	}

	s.Type("Kol")
	select {
	case <-gs.canceled:
	case <-time.After(time.Second):
		t.Fatal("lookup for Mu was not cancelled")
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	close(gs.release)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Kol"}, delivered)
}

func newTestGoogleGeocoder(loc geocoder.Location, err error, addrs []geocoder.Address) *GoogleGeocoder {
	return &GoogleGeocoder{
		geocode: func(geocoder.Address) (geocoder.Location, error) { return loc, err },
		reverse: func(geocoder.Location) ([]geocoder.Address, error) { return addrs, nil },
	}
}

func TestGoogleGeocoder_Search(t *testing.T) {
	g := newTestGoogleGeocoder(
		geocoder.Location{Latitude: 22.57, Longitude: 88.36}, nil,
		[]geocoder.Address{{City: "Kolkata", State: "West Bengal", Country: "India"}},
	)

	got, err := g.Search(context.Background(), "kolkata", SearchLimit)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kolkata, West Bengal, India", got[0].Label())
	assert.Equal(t, 22.57, got[0].Coordinate.Lat)
}

func TestGoogleGeocoder_SearchZeroLimit(t *testing.T) {
	g := newTestGoogleGeocoder(geocoder.Location{}, errors.New("must not be called"), nil)

	got, err := g.Search(context.Background(), "kolkata", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGoogleGeocoder_SearchError(t *testing.T) {
	upstream := errors.New("ZERO_RESULTS")
	g := newTestGoogleGeocoder(geocoder.Location{}, upstream, nil)

	_, err := g.Search(context.Background(), "nowhere", SearchLimit)
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestGoogleGeocoder_SearchRejectsInvalidCoordinate(t *testing.T) {
	g := newTestGoogleGeocoder(geocoder.Location{Latitude: 200, Longitude: 10}, nil, nil)

	got, err := g.Search(context.Background(), "atlantis", SearchLimit)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestGoogleGeocoder_SearchHonoursContext(t *testing.T) {
	unblock := make(chan struct{})
	defer close(unblock)
	g := &GoogleGeocoder{
		geocode: func(geocoder.Address) (geocoder.Location, error) {
			<-unblock
			return geocoder.Location{}, nil
		},
		reverse: func(geocoder.Location) ([]geocoder.Address, error) { return nil, nil },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Search(ctx, "kolkata", SearchLimit)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCandidateFromGoogle(t *testing.T) {
	loc := geocoder.Location{Latitude: 48.85, Longitude: 2.35}
	addrs := []geocoder.Address{
		{},
		{City: "Paris", State: "Île-de-France", Country: "France"},
	}

	c := candidateFromGoogle("paris", loc, addrs)
	assert.Equal(t, "Paris, Île-de-France, France", c.Label())
	assert.Equal(t, 48.85, c.Coordinate.Lat)

	c = candidateFromGoogle("paris", loc, nil)
	assert.Equal(t, "paris", c.Label())
}
