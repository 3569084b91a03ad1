package authflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Operation names understood by the transport.
const (
	OpLogin          = "login"
	OpSignup         = "signup"
	OpForgotPassword = "forgotPassword"
)

// Payload is the data part of a successful transport result.
type Payload struct {
	Message string `json:"message"`
}

// Transport sends one operation to the authentication backend. A non-nil
// error is a transport error; a nil Payload together with a nil error is a
// malformed response.
type Transport interface {
	Execute(ctx context.Context, operation string, params map[string]string) (*Payload, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, operation string, params map[string]string) (*Payload, error)

// Execute implements Transport.
func (f TransportFunc) Execute(ctx context.Context, operation string, params map[string]string) (*Payload, error) {
	return f(ctx, operation, params)
}

// Status is the tag of a SubmissionState.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmissionState is the lifecycle of one view's submission. Message is set
// only for Succeeded and Failed.
type SubmissionState struct {
	Status  Status
	Message string
}

// Idle returns the state of a view that has not submitted yet.
func Idle() SubmissionState { return SubmissionState{Status: StatusIdle} }

// Pending returns the in-flight state.
func Pending() SubmissionState { return SubmissionState{Status: StatusPending} }

// Succeeded returns a success state carrying the backend message.
func Succeeded(msg string) SubmissionState {
	return SubmissionState{Status: StatusSucceeded, Message: msg}
}

// Failed returns a failure state carrying the formatted error.
func Failed(msg string) SubmissionState {
	return SubmissionState{Status: StatusFailed, Message: msg}
}

// Terminal reports whether the state is Succeeded or Failed.
func (s SubmissionState) Terminal() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

// ErrSubmissionPending is returned when a submission is attempted while a
// previous one has not resolved.
var ErrSubmissionPending = errors.New("submission already pending")

// ErrDiscarded is returned when the controller's view has been unmounted.
var ErrDiscarded = errors.New("submission controller discarded")

// Controller drives one view's SubmissionState through the transport.
// Results are applied only if their token is still current, so a response
// arriving after Discard or after a newer submission is dropped.
type Controller struct {
	operation string
	transport Transport
	logger    *slog.Logger

	mu        sync.Mutex
	state     SubmissionState
	token     uint64
	discarded bool
}

// NewController creates a controller for operation using transport.
func NewController(operation string, transport Transport, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		operation: operation,
		transport: transport,
		logger:    logger,
		state:     Idle(),
	}
}

// State returns the current submission state.
func (c *Controller) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit sends fields to the transport and returns the resulting terminal
// state. The caller must have validated fields already. The second return
// value reports whether the result was applied; it is false when the
// controller was discarded while the call was in flight.
func (c *Controller) Submit(ctx context.Context, fields FieldSet) (SubmissionState, bool, error) {
	token, err := c.begin()
	if err != nil {
		return c.State(), false, err
	}

	payload, execErr := c.transport.Execute(ctx, c.operation, fields.Params())
	next := outcome(payload, execErr)

	applied := c.apply(token, next)
	if !applied {
		c.logger.Debug("Dropping stale submission result",
			"operation", c.operation, "token", token, "status", next.Status.String())
		return next, false, nil
	}

	if next.Status == StatusFailed {
		c.logger.Info("Submission failed", "operation", c.operation, "error", execErr, "message", next.Message)
	} else {
		c.logger.Info("Submission succeeded", "operation", c.operation)
	}
	return next, true, nil
}

// Discard invalidates every in-flight submission. It is called when the view
// that owns the controller is unmounted.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discarded = true
	c.token++
}

func (c *Controller) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discarded {
		return 0, ErrDiscarded
	}
	if c.state.Status == StatusPending {
		return 0, ErrSubmissionPending
	}
	c.token++
	c.state = Pending()
	return c.token, nil
}

func (c *Controller) apply(token uint64, next SubmissionState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discarded || token != c.token {
		return false
	}
	c.state = next
	return true
}

// outcome translates a transport result into a terminal state. Data takes
// precedence when a misbehaving transport returns both.
func outcome(payload *Payload, err error) SubmissionState {
	switch {
	case payload != nil:
		return Succeeded(payload.Message)
	case err != nil:
		return Failed(FormatErrorMessage(err))
	default:
		return Failed(MsgGenericFailure)
	}
}
