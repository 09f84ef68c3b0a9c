package location

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/snowfall-check/internal/format"
	"github.com/i474232898/snowfall-check/internal/geo"
	applog "github.com/i474232898/snowfall-check/internal/log"
)

// ErrStaleSearch is returned by SubmitSearch when the user moved on before
// the search completed. Its result was discarded.
var ErrStaleSearch = errors.New("search result is no longer relevant")

// Locator acquires a position from one automatic source.
type Locator interface {
	Locate(ctx context.Context) (geo.Fix, error)
}

// Searcher resolves free text to a place.
type Searcher interface {
	Search(ctx context.Context, query string) (geo.Place, bool, error)
}

// ResolutionObserver is notified of every recomputed resolution.
type ResolutionObserver interface {
	ObserveResolution(mode, source string)
}

// Observe reports res to o, labelling the source "none" until there is a
// location. A nil o is ignored.
func Observe(o ResolutionObserver, res Resolved) {
	if o == nil {
		return
	}
	source := "none"
	if res.HasLocation() {
		source = res.Source.String()
	}
	o.ObserveResolution(res.Mode.String(), source)
}

// forgetter is implemented by locators that cache their last fix.
type forgetter interface {
	Forget()
}

// Controller owns one resolution session: the state of the three sources,
// the force-manual flag and the theme. Completions from concurrent
// acquisitions are applied under a mutex and tagged with a token so that a
// result arriving after the user moved on is dropped.
type Controller struct {
	precise     Locator
	approximate Locator
	searcher    Searcher
	observer    ResolutionObserver
	logger      *zap.SugaredLogger

	mu          sync.Mutex
	states      map[geo.Source]geo.State
	tokens      map[geo.Source]uuid.UUID
	forceManual bool
	notice      string
	theme       format.Theme
	listeners   []func(Resolved)

	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

type ControllerOption func(*Controller)

func WithObserver(o ResolutionObserver) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

func WithLogger(l *zap.SugaredLogger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

func WithTheme(t format.Theme) ControllerOption {
	return func(c *Controller) { c.theme = t }
}

// NewController creates an idle session. A nil precise or approximate
// locator is treated as a source that always fails.
func NewController(precise, approximate Locator, searcher Searcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		precise:     precise,
		approximate: approximate,
		searcher:    searcher,
		states: map[geo.Source]geo.State{
			geo.SourcePrecise:     geo.Idle(),
			geo.SourceApproximate: geo.Idle(),
			geo.SourceManual:      geo.Idle(),
		},
		tokens: make(map[geo.Source]uuid.UUID),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = applog.OrNop(c.logger)
	return c
}

// Start begins the precise and approximate acquisitions. It returns at once;
// use Subscribe or Wait to observe the outcome.
func (c *Controller) Start(ctx context.Context) {
	c.acquire(ctx, geo.SourcePrecise, c.precise)
	c.acquire(ctx, geo.SourceApproximate, c.approximate)
}

// SubmitSearch looks up query and, on success, makes it the current
// location. It blocks until the search completes and returns the resulting
// view. A query with no matches is not an error: the view carries a notice
// instead.
func (c *Controller) SubmitSearch(ctx context.Context, query string) (Resolved, error) {
	c.mu.Lock()
	c.forceManual = true
	c.notice = ""
	c.states[geo.SourceManual] = geo.Loading()
	token := c.rotateLocked(geo.SourceManual)
	c.mu.Unlock()
	c.notify()

	place, found, err := c.searcher.Search(ctx, query)

	c.mu.Lock()
	if c.tokens[geo.SourceManual] != token {
		c.mu.Unlock()
		c.logger.Debugw("discarding stale search result", "query", query)
		return c.Resolved(), ErrStaleSearch
	}
	switch {
	case errors.Is(err, ErrEmptyQuery):
		c.states[geo.SourceManual] = geo.Idle()
		c.notice = "Enter a place to search for."
	case err != nil:
		c.states[geo.SourceManual] = geo.Failed(err)
		c.notice = "Search is unavailable right now. Please try again."
	case !found:
		c.states[geo.SourceManual] = geo.Idle()
		c.notice = fmt.Sprintf("No places found for %q. Try a different search.", query)
	default:
		c.states[geo.SourceManual] = geo.Succeeded(geo.Fix{
			Coords:    place.Coords(),
			PlaceName: place.DisplayName(),
			Region:    place.Admin1,
			Country:   place.Country,
		})
	}
	c.mu.Unlock()

	return c.notify(), err
}

// UsePreciseLocation leaves manual mode and asks the precise source again,
// even if it failed or was denied before.
func (c *Controller) UsePreciseLocation(ctx context.Context) {
	if f, ok := c.precise.(forgetter); ok {
		f.Forget()
	}

	c.mu.Lock()
	c.forceManual = false
	c.notice = ""
	c.states[geo.SourceManual] = geo.Idle()
	c.rotateLocked(geo.SourceManual)
	c.mu.Unlock()

	c.acquire(ctx, geo.SourcePrecise, c.precise)
}

// CheckAnotherLocation clears any manual result and shows the search form.
func (c *Controller) CheckAnotherLocation() {
	c.mu.Lock()
	c.forceManual = true
	c.notice = ""
	c.states[geo.SourceManual] = geo.Idle()
	c.rotateLocked(geo.SourceManual)
	c.mu.Unlock()

	c.notify()
}

// Resolved evaluates the policy against the current state.
func (c *Controller) Resolved() Resolved {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked()
}

// Subscribe registers fn to be called with the new view after every change.
// Calls are serialized and fn must not call back into Subscribe.
func (c *Controller) Subscribe(fn func(Resolved)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Wait blocks until every acquisition started so far has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) Theme() format.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// ToggleTheme switches between the normal and blizzard themes and returns
// the new one.
func (c *Controller) ToggleTheme() format.Theme {
	c.mu.Lock()
	c.theme = c.theme.Toggle()
	t := c.theme
	c.mu.Unlock()
	return t
}

func (c *Controller) acquire(ctx context.Context, source geo.Source, loc Locator) {
	c.mu.Lock()
	c.states[source] = geo.Loading()
	token := c.rotateLocked(source)
	c.mu.Unlock()
	c.notify()

	if loc == nil {
		c.complete(source, token, geo.Fix{}, geo.ErrPositionUnavailable)
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fix, err := loc.Locate(ctx)
		c.complete(source, token, fix, err)
	}()
}

func (c *Controller) complete(source geo.Source, token uuid.UUID, fix geo.Fix, err error) {
	c.mu.Lock()
	if c.tokens[source] != token {
		c.mu.Unlock()
		c.logger.Debugw("discarding stale location result", "source", source)
		return
	}
	if err != nil {
		c.states[source] = geo.Failed(err)
	} else {
		c.states[source] = geo.Succeeded(fix)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Infow("location source failed", "source", source, "error", err)
	} else {
		c.logger.Debugw("location source succeeded", "source", source, "coords", fix.Coords.String())
	}
	c.notify()
}

func (c *Controller) rotateLocked(source geo.Source) uuid.UUID {
	token := uuid.New()
	c.tokens[source] = token
	return token
}

func (c *Controller) resolveLocked() Resolved {
	return Resolve(Inputs{
		Precise:          c.states[geo.SourcePrecise],
		Approximate:      c.states[geo.SourceApproximate],
		Manual:           c.states[geo.SourceManual],
		ForceManualInput: c.forceManual,
		Notice:           c.notice,
	})
}

// notify evaluates the current view and hands it to every listener. The view
// is taken while notifyMu is held, so the last delivery always reflects the
// latest state.
func (c *Controller) notify() Resolved {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	res := c.resolveLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	Observe(c.observer, res)
	for _, fn := range listeners {
		fn(res)
	}
	return res
}
