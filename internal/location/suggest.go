package location

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultDebounce is the quiet period before a typed query is searched.
const DefaultDebounce = 300 * time.Millisecond

// Searcher is satisfied by Provider.
type Searcher interface {
	Search(ctx context.Context, query string) []weather.LocationCandidate
}

// Suggester debounces search-as-you-type input. Only the result of the most
// recent query is delivered; superseded lookups are cancelled and dropped.
type Suggester struct {
	searcher Searcher
	delay    time.Duration
	deliver  func(query string, candidates []weather.LocationCandidate)

	gen *atomic.Uint64

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewSuggester creates a Suggester calling deliver with each surviving result.
// A non-positive delay uses DefaultDebounce.
func NewSuggester(s Searcher, delay time.Duration, deliver func(string, []weather.LocationCandidate)) *Suggester {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Suggester{
		searcher: s,
		delay:    delay,
		deliver:  deliver,
		gen:      atomic.NewUint64(0),
	}
}

// Type records a new query, replacing any pending or in-flight lookup.
func (s *Suggester) Type(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()

	gen := s.gen.Inc()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = time.AfterFunc(s.delay, func() {
		res := s.searcher.Search(ctx, query)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.gen.Load() != gen {
			return
		}
		s.deliver(query, res)
	})
}

// Close cancels pending work. No results are delivered afterwards.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen.Inc()
	s.stopLocked()
}

func (s *Suggester) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
