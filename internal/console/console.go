package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const help = `commands:
  search <text>   look up places (results arrive after a short pause)
  pick <n>        show weather for suggestion n
  locate          show weather for the current location
  retry           refresh the displayed location
  show            print the dashboard
  quit            exit`

// Console is an interactive line-based dashboard.
type Console struct {
	ctrl     *dashboard.Controller
	searcher location.Searcher
	debounce time.Duration
	log      *zap.Logger

	out io.Writer
	// outMu serialises writes from the input loop and the background
	// suggestion and state goroutines.
	outMu sync.Mutex

	sugMu       sync.Mutex
	suggestions []weather.LocationCandidate
}

// New creates a Console writing to out.
func New(ctrl *dashboard.Controller, searcher location.Searcher, debounce time.Duration, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		ctrl:     ctrl,
		searcher: searcher,
		debounce: debounce,
		log:      log,
		out:      out,
	}
}

// Run reads commands from in until quit, EOF, or ctx is cancelled.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	suggester := location.NewSuggester(c.searcher, c.debounce, c.showSuggestions)
	defer suggester.Close()

	updates, unsubscribe := c.ctrl.Subscribe(8)
	defer unsubscribe()
	go c.watch(updates)

	done := make(chan struct{})
	defer close(done)
	lines, scanErr := readLines(in, done)

	c.printf("%s\n", help)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := c.handle(ctx, suggester, line); quit {
				return nil
			}
		}
	}
}

// readLines scans in until EOF or until done is closed. The returned lines
// channel is closed when scanning stops; on EOF the scanner error is sent on
// the error channel first.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func (c *Console) handle(ctx context.Context, suggester *location.Suggester, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit":
		return true
	case "help":
		c.printf("%s\n", help)
	case "search":
		suggester.Type(arg)
	case "pick":
		cand, err := c.pick(arg)
		if err != nil {
			c.printf("%v\n", err)
			return false
		}
		c.ctrl.Go(ctx, func(ctx context.Context) error {
			return c.ctrl.FetchWeatherData(ctx, cand.Coordinate, cand.Label())
		})
	case "locate":
		c.ctrl.Go(ctx, c.ctrl.ResolveCurrentLocationAndFetch)
	case "retry":
		c.ctrl.Go(ctx, c.ctrl.Retry)
	case "show":
		c.render(c.ctrl.State())
	default:
		c.printf("unknown command %q; type help\n", cmd)
	}
	return false
}

func (c *Console) pick(arg string) (weather.LocationCandidate, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return weather.LocationCandidate{}, fmt.Errorf("pick needs a suggestion number")
	}

	c.sugMu.Lock()
	defer c.sugMu.Unlock()
	if n < 1 || n > len(c.suggestions) {
		return weather.LocationCandidate{}, fmt.Errorf("no suggestion %d", n)
	}
	return c.suggestions[n-1], nil
}

func (c *Console) showSuggestions(query string, candidates []weather.LocationCandidate) {
	c.sugMu.Lock()
	c.suggestions = candidates
	c.sugMu.Unlock()

	if len(candidates) == 0 {
		c.printf("no places match %q\n", query)
		return
	}
	var b strings.Builder
	for i, cand := range candidates {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, cand.Label())
	}
	c.printf("%s", b.String())
}

func (c *Console) watch(updates <-chan dashboard.WeatherDataState) {
	for s := range updates {
		switch s.Phase() {
		case dashboard.PhaseLoading, dashboard.PhaseRefreshing:
			c.printf("updating...\n")
		default:
			c.render(s)
		}
	}
}

func (c *Console) render(s dashboard.WeatherDataState) {
	v := httpapi.BuildView(s, time.Now())

	var b strings.Builder
	switch {
	case v.ShowErrorView:
		fmt.Fprintf(&b, "error: %s\ntype retry to try again\n", v.Error)
	case v.Current == nil:
		b.WriteString("nothing to show yet\n")
	default:
		cur := v.Current
		fmt.Fprintf(&b, "%s (%s)\n", v.LocationName, cur.Description)
		fmt.Fprintf(&b, "  %s, feels like %s, high %s, low %s\n", cur.Temperature, cur.FeelsLike, cur.High, cur.Low)
		fmt.Fprintf(&b, "  humidity %s, pressure %s, visibility %s, wind %s\n", cur.Humidity, cur.Pressure, cur.Visibility, cur.Wind)
		fmt.Fprintf(&b, "  sunrise %s, sunset %s, local time %s\n", cur.Sunrise, cur.Sunset, cur.LocalTime)
		for _, d := range v.Daily {
			fmt.Fprintf(&b, "  %-12s %s / %s  %s, rain %s\n", d.Label, d.High, d.Low, d.Description, d.Precipitation)
		}
		if aq := v.AirQuality; aq != nil {
			fmt.Fprintf(&b, "  air quality %d (%s)\n", aq.Index, aq.Label)
		}
		if v.Tips != nil {
			fmt.Fprintf(&b, "  %s\n  %s\n", v.Tips.Clothing, v.Tips.Activity)
		}
		if v.Simulated {
			b.WriteString("  (simulated data)\n")
		}
		if v.Error != "" {
			fmt.Fprintf(&b, "  last refresh failed: %s\n", v.Error)
		}
	}
	c.printf("%s", b.String())
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.log.Debug("console write failed", zap.Error(err))
	}
}
