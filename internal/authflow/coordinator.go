package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoLink is returned when a navigation has no link in the current view.
var ErrNoLink = errors.New("no navigation link between flows")

// links lists the navigation links each view renders.
var links = map[Flow][]Flow{
	FlowLogin:          {FlowForgotPassword, FlowSignup},
	FlowSignup:         {FlowLogin},
	FlowForgotPassword: {FlowLogin},
}

// Links returns the flows reachable from flow with one click.
func Links(flow Flow) []Flow {
	return append([]Flow(nil), links[flow]...)
}

// CanNavigate reports whether a link leads from one flow to the other.
func CanNavigate(from, to Flow) bool {
	for _, f := range links[from] {
		if f == to {
			return true
		}
	}
	return false
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOnAuthenticated sets the callback invoked once after a successful login.
func WithOnAuthenticated(fn func()) Option {
	return func(c *Coordinator) { c.onAuthenticated = fn }
}

// WithLogger sets the logger used by the coordinator and its views.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// Coordinator selects which view is mounted. It holds exactly one view at a
// time; every navigation discards the old view and mounts a new one.
type Coordinator struct {
	transport       Transport
	logger          *slog.Logger
	onAuthenticated func()

	mu            sync.Mutex
	view          *View
	authenticated bool
}

// NewCoordinator mounts the widget with the Login view active.
func NewCoordinator(transport Transport, opts ...Option) *Coordinator {
	c := &Coordinator{transport: transport}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.view = c.mount(FlowLogin)
	return c
}

// Flow returns the active flow.
func (c *Coordinator) Flow() Flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Flow()
}

// View returns the mounted view.
func (c *Coordinator) View() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Links returns the navigation links of the active view.
func (c *Coordinator) Links() []Flow {
	return Links(c.Flow())
}

// Authenticated reports whether a login has succeeded on this widget.
func (c *Coordinator) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Navigate follows a link to flow, replacing the mounted view.
func (c *Coordinator) Navigate(to Flow) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.view.Flow()
	if !CanNavigate(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoLink, from, to)
	}
	c.view.Discard()
	c.view = c.mount(to)
	c.logger.Debug("Navigated auth widget", "from", from.String(), "to", to.String())
	return c.view, nil
}

// Reset re-mounts the widget at the Login view as if it were new. A later
// successful login fires the authenticated callback again.
func (c *Coordinator) Reset() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Discard()
	c.view = c.mount(FlowLogin)
	c.authenticated = false
	return c.view
}

// Submit submits the mounted view. A successful login that is still current
// when its result arrives triggers the authenticated callback.
func (c *Coordinator) Submit(ctx context.Context) (SubmissionState, error) {
	view := c.View()
	state, applied, err := view.Submit(ctx)
	if err != nil {
		return state, err
	}
	if applied && state.Status == StatusSucceeded && view.Config().SuccessRendersAs == SuccessSession {
		c.markAuthenticated(view)
	}
	return state, nil
}

func (c *Coordinator) markAuthenticated(view *View) {
	c.mu.Lock()
	if c.view != view || c.authenticated {
		c.mu.Unlock()
		return
	}
	c.authenticated = true
	fn := c.onAuthenticated
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *Coordinator) mount(flow Flow) *View {
	cfg, err := ConfigFor(flow)
	if err != nil {
		// Flows come from the fixed link table.
		panic(err)
	}
	return NewView(cfg, c.transport, c.logger.With("flow", flow.String()))
}
