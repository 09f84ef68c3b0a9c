package location

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/i474232898/snowfall-check/internal/format"
	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/upstream"
)

type fakeLocator struct {
	calls  atomic.Int32
	forgot atomic.Int32
	locate func(call int) (geo.Fix, error)
}

func (l *fakeLocator) Locate(context.Context) (geo.Fix, error) {
	n := int(l.calls.Add(1))
	return l.locate(n)
}

func (l *fakeLocator) Forget() { l.forgot.Add(1) }

func returns(fix geo.Fix, err error) *fakeLocator {
	return &fakeLocator{locate: func(int) (geo.Fix, error) { return fix, err }}
}

type fakeSearcher struct {
	place   geo.Place
	found   bool
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *fakeSearcher) Search(ctx context.Context, _ string) (geo.Place, bool, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return s.place, s.found, s.err
}

type modeRecorder struct {
	mu   sync.Mutex
	seen []Resolved
}

func (r *modeRecorder) record(res Resolved) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, res)
}

func (r *modeRecorder) last() Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

type resolutionCounter struct {
	mu    sync.Mutex
	modes map[string]int
}

func (c *resolutionCounter) ObserveResolution(mode, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modes == nil {
		c.modes = make(map[string]int)
	}
	c.modes[mode]++
}

var boulder = geo.Place{Name: "Boulder", Latitude: 40.015, Longitude: -105.2705, Country: "United States", Admin1: "Colorado"}

func TestController_PreciseWins(t *testing.T) {
	c := NewController(returns(preciseFix, nil), returns(approxFix, nil), &fakeSearcher{})
	c.Start(context.Background())
	c.Wait()

	got := c.Resolved()
	if got.Mode != ModeHaveLocation || got.IsApproximate || got.Coords != preciseFix.Coords {
		t.Errorf("unexpected resolution %+v", got)
	}
}

func TestController_FallsBackToApproximate(t *testing.T) {
	c := NewController(returns(geo.Fix{}, geo.ErrPermissionDenied), returns(approxFix, nil), &fakeSearcher{})
	c.Start(context.Background())
	c.Wait()

	got := c.Resolved()
	if got.Mode != ModeHaveLocation || !got.IsApproximate || got.DisplayName != "Denver, Colorado" {
		t.Errorf("unexpected resolution %+v", got)
	}
}

func TestController_AllSourcesExhausted(t *testing.T) {
	counter := &resolutionCounter{}
	c := NewController(
		returns(geo.Fix{}, geo.ErrPermissionDenied),
		returns(geo.Fix{}, geo.ErrPositionUnavailable),
		&fakeSearcher{},
		WithObserver(counter),
	)
	c.Start(context.Background())
	c.Wait()

	got := c.Resolved()
	if got.Mode != ModeNeedManualInput {
		t.Fatalf("mode = %v", got.Mode)
	}
	if got.Hint != "Location access was denied. Search for a place instead." {
		t.Errorf("hint = %q", got.Hint)
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.modes["need_manual_input"] == 0 || counter.modes["loading"] == 0 {
		t.Errorf("observer saw %v", counter.modes)
	}
}

func TestController_NilLocatorsFail(t *testing.T) {
	c := NewController(nil, nil, &fakeSearcher{})
	c.Start(context.Background())
	c.Wait()

	if got := c.Resolved(); got.Mode != ModeNeedManualInput {
		t.Errorf("mode = %v", got.Mode)
	}
}

func TestController_LatePreciseUpgradesApproximate(t *testing.T) {
	release := make(chan struct{})
	precise := &fakeLocator{locate: func(int) (geo.Fix, error) {
		<-release
		return preciseFix, nil
	}}
	approxDone := make(chan struct{})
	rec := &modeRecorder{}

	c := NewController(precise, returns(approxFix, nil), &fakeSearcher{})
	c.Subscribe(func(r Resolved) {
		rec.record(r)
		if r.IsApproximate {
			select {
			case <-approxDone:
			default:
				close(approxDone)
			}
		}
	})
	c.Start(context.Background())

	<-approxDone
	if got := c.Resolved(); !got.IsApproximate {
		t.Fatalf("expected approximate first, got %+v", got)
	}

	close(release)
	c.Wait()

	final := rec.last()
	if final.IsApproximate || final.Coords != preciseFix.Coords {
		t.Errorf("precise should replace approximate, got %+v", final)
	}
}

func TestController_SubmitSearch(t *testing.T) {
	c := NewController(returns(preciseFix, nil), returns(approxFix, nil), &fakeSearcher{place: boulder, found: true})
	c.Start(context.Background())
	c.Wait()

	got, err := c.SubmitSearch(context.Background(), "Boulder, CO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Mode != ModeHaveLocation || got.Source != geo.SourceManual {
		t.Fatalf("unexpected resolution %+v", got)
	}
	if got.DisplayName != "Boulder, Colorado" || got.IsApproximate {
		t.Errorf("unexpected manual view %+v", got)
	}
}

func TestController_SubmitSearchNotFound(t *testing.T) {
	c := NewController(returns(preciseFix, nil), nil, &fakeSearcher{})

	got, err := c.SubmitSearch(context.Background(), "Xyzzyville")
	if err != nil {
		t.Fatalf("not found must not be an error: %v", err)
	}
	if got.Mode != ModeNeedManualInput {
		t.Errorf("mode = %v", got.Mode)
	}
	if got.Notice != `No places found for "Xyzzyville". Try a different search.` {
		t.Errorf("notice = %q", got.Notice)
	}
}

func TestController_SubmitSearchFailure(t *testing.T) {
	searchErr := &upstream.Error{Service: "openmeteo-geocoding", StatusCode: 503}
	c := NewController(nil, nil, &fakeSearcher{err: searchErr})

	got, err := c.SubmitSearch(context.Background(), "Denver")
	if upstream.StatusCode(err) != 503 {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got.Mode != ModeNeedManualInput || got.Notice == "" {
		t.Errorf("unexpected resolution %+v", got)
	}
}

func TestController_CheckAnotherLocation(t *testing.T) {
	c := NewController(returns(preciseFix, nil), returns(approxFix, nil), &fakeSearcher{place: boulder, found: true})
	c.Start(context.Background())
	c.Wait()

	if _, err := c.SubmitSearch(context.Background(), "Boulder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.CheckAnotherLocation()
	if got := c.Resolved(); got.Mode != ModeNeedManualInput {
		t.Errorf("mode = %v, want need_manual_input", got.Mode)
	}
}

func TestController_UsePreciseLocation(t *testing.T) {
	precise := &fakeLocator{locate: func(call int) (geo.Fix, error) {
		if call == 1 {
			return geo.Fix{}, geo.ErrPermissionDenied
		}
		return preciseFix, nil
	}}
	c := NewController(precise, returns(approxFix, nil), &fakeSearcher{place: boulder, found: true})
	c.Start(context.Background())
	c.Wait()

	if _, err := c.SubmitSearch(context.Background(), "Boulder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.UsePreciseLocation(context.Background())
	c.Wait()

	got := c.Resolved()
	if got.Source != geo.SourcePrecise || got.Coords != preciseFix.Coords {
		t.Errorf("expected precise location, got %+v", got)
	}
	if precise.calls.Load() != 2 {
		t.Errorf("precise located %d times, want 2", precise.calls.Load())
	}
	if precise.forgot.Load() != 1 {
		t.Error("cached fix should be forgotten before retrying")
	}
}

func TestController_StaleSearchDiscarded(t *testing.T) {
	s := &fakeSearcher{
		place:   boulder,
		found:   true,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewController(nil, nil, s)

	type result struct {
		res Resolved
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := c.SubmitSearch(context.Background(), "Boulder")
		done <- result{res, err}
	}()

	<-s.started
	c.CheckAnotherLocation()
	close(s.release)

	r := <-done
	if !errors.Is(r.err, ErrStaleSearch) {
		t.Fatalf("expected ErrStaleSearch, got %v", r.err)
	}
	if got := c.Resolved(); got.Mode != ModeNeedManualInput {
		t.Errorf("stale result must not be applied, got %+v", got)
	}
}

func TestController_StalePreciseDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	precise := &fakeLocator{locate: func(call int) (geo.Fix, error) {
		if call == 1 {
			close(entered)
			<-release
			return geo.Fix{}, geo.ErrTimeout
		}
		return preciseFix, nil
	}}
	c := NewController(precise, nil, &fakeSearcher{})
	c.Start(context.Background())
	<-entered

	c.UsePreciseLocation(context.Background())
	close(release)
	c.Wait()

	if got := c.Resolved(); got.Mode != ModeHaveLocation || got.Source != geo.SourcePrecise {
		t.Errorf("late failure of the first attempt overwrote the retry: %+v", got)
	}
}

func TestController_Theme(t *testing.T) {
	c := NewController(nil, nil, &fakeSearcher{}, WithTheme(format.ThemeBlizzard))
	if c.Theme() != format.ThemeBlizzard {
		t.Fatalf("theme = %v", c.Theme())
	}
	if c.ToggleTheme() != format.ThemeNormal || c.Theme() != format.ThemeNormal {
		t.Error("toggle should switch to normal")
	}
}

func TestController_SubscribeNotifiesEveryListener(t *testing.T) {
	c := NewController(returns(preciseFix, nil), nil, &fakeSearcher{})

	first, second := &modeRecorder{}, &modeRecorder{}
	c.Subscribe(first.record)
	c.Subscribe(second.record)

	c.CheckAnotherLocation()

	for i, rec := range []*modeRecorder{first, second} {
		rec.mu.Lock()
		n := len(rec.seen)
		rec.mu.Unlock()
		if n != 1 {
			t.Fatalf("listener %d saw %d updates, want 1", i, n)
		}
		if got := rec.last(); got.Mode != ModeNeedManualInput {
			t.Errorf("listener %d got mode %v", i, got.Mode)
		}
	}

	c.Subscribe(func(Resolved) {})
	c.CheckAnotherLocation()
	if len(first.seen) != 2 {
		t.Errorf("adding a listener must not drop earlier ones, first saw %d", len(first.seen))
	}
}

func TestObserve(t *testing.T) {
	counter := &resolutionCounter{}
	Observe(counter, Resolved{Mode: ModeHaveLocation, Source: geo.SourceManual})
	Observe(counter, Resolved{Mode: ModeLoading})
	Observe(nil, Resolved{})

	if counter.modes["have_location"] != 1 || counter.modes["loading"] != 1 {
		t.Errorf("observed %v", counter.modes)
	}
}
