package authflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// FieldKind is the input type of a field.
type FieldKind string

const (
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindText     FieldKind = "text"
)

// FieldDescriptor describes one input of a view.
type FieldDescriptor struct {
	Name        string
	Label       string
	Kind        FieldKind
	Placeholder string
	Required    bool
}

// SuccessMode says what a successful submission turns into.
type SuccessMode int

const (
	// SuccessSession reports the success upward; the parent owns the session.
	SuccessSession SuccessMode = iota
	// SuccessMessage replaces the form with the backend's message.
	SuccessMessage
)

// ViewConfig binds a flow's fields, rules and operation together.
type ViewConfig struct {
	Flow             Flow
	Title            string
	SubmitLabel      string
	PendingLabel     string
	Fields           []FieldDescriptor
	OperationName    string
	SuccessRendersAs SuccessMode
}

// FieldNames returns the names of the configured fields in order.
func (c ViewConfig) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

const (
	emailPlaceholder    = "eg. foo@bar.com"
	passwordPlaceholder = "*********"
	pendingLabel        = "Processing ..."
)

var (
	emailField = FieldDescriptor{
		Name: FieldEmail, Label: "Email", Kind: KindEmail, Placeholder: emailPlaceholder, Required: true,
	}
	passwordField = FieldDescriptor{
		Name: FieldPassword, Label: "Password", Kind: KindPassword, Placeholder: passwordPlaceholder, Required: true,
	}
	confirmPasswordField = FieldDescriptor{
		Name: FieldConfirmPassword, Label: "Confirm Password", Kind: KindPassword, Placeholder: passwordPlaceholder, Required: true,
	}
)

var viewConfigs = map[Flow]ViewConfig{
	FlowLogin: {
		Flow:             FlowLogin,
		Title:            "Log In",
		SubmitLabel:      "Log In",
		PendingLabel:     pendingLabel,
		Fields:           []FieldDescriptor{emailField, passwordField},
		OperationName:    OpLogin,
		SuccessRendersAs: SuccessSession,
	},
	FlowSignup: {
		Flow:             FlowSignup,
		Title:            "Sign Up",
		SubmitLabel:      "Sign Up",
		PendingLabel:     pendingLabel,
		Fields:           []FieldDescriptor{emailField, passwordField, confirmPasswordField},
		OperationName:    OpSignup,
		SuccessRendersAs: SuccessMessage,
	},
	FlowForgotPassword: {
		Flow:             FlowForgotPassword,
		Title:            "Forgot Password",
		SubmitLabel:      "Send Reset Link",
		PendingLabel:     pendingLabel,
		Fields:           []FieldDescriptor{emailField},
		OperationName:    OpForgotPassword,
		SuccessRendersAs: SuccessMessage,
	},
}

// ConfigFor returns the hard-coded configuration of flow.
func ConfigFor(flow Flow) (ViewConfig, error) {
	cfg, ok := viewConfigs[flow]
	if !ok {
		return ViewConfig{}, ErrUnknownFlow
	}
	// Fields is shared; hand out a copy.
	cfg.Fields = append([]FieldDescriptor(nil), cfg.Fields...)
	return cfg, nil
}

// ErrInvalidFields is returned by View.Submit when validation fails. The
// transport is not called in that case.
var ErrInvalidFields = errors.New("fields are invalid")

// FieldState is the render model of one input.
type FieldState struct {
	FieldDescriptor
	Value   string
	Touched bool
	// Error is the message to display; empty unless the field is touched
	// and currently invalid.
	Error string
}

// ViewState is an immutable snapshot used for rendering.
type ViewState struct {
	Config         ViewConfig
	Fields         []FieldState
	Submission     SubmissionState
	Banner         string
	SubmitDisabled bool
	SubmitLabel    string
	// ShowForm is false once a SuccessMessage flow has succeeded; the
	// success notice is rendered in its place.
	ShowForm bool
	Valid    bool
}

// View is one mounted authentication view. It owns its FieldSet, touched
// flags, banner and submission controller; nothing is shared between views.
type View struct {
	cfg    ViewConfig
	ctrl   *Controller
	logger *slog.Logger

	mu      sync.Mutex
	initial FieldSet
	fields  FieldSet
	touched map[string]bool
	banner  string
}

// NewView mounts a fresh view for cfg.
func NewView(cfg ViewConfig, transport Transport, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	fields := NewFieldSet(cfg.FieldNames()...)
	return &View{
		cfg:     cfg,
		ctrl:    NewController(cfg.OperationName, transport, logger),
		logger:  logger,
		initial: fields.Clone(),
		fields:  fields,
		touched: make(map[string]bool, len(cfg.Fields)),
	}
}

// Flow returns the view's flow.
func (v *View) Flow() Flow { return v.cfg.Flow }

// Config returns the view's configuration.
func (v *View) Config() ViewConfig { return v.cfg }

// Fields returns a copy of the current values.
func (v *View) Fields() FieldSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fields.Clone()
}

// Submission returns the current submission state.
func (v *View) Submission() SubmissionState {
	return v.ctrl.State()
}

// Change records user input for name.
func (v *View) Change(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fields.Set(name, value)
}

// Blur marks name as touched, which lets its error be shown.
func (v *View) Blur(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.fields.Has(name) {
		return ErrUnknownField
	}
	v.touched[name] = true
	return nil
}

// Validate runs the flow's rules against the current values.
func (v *View) Validate() ValidationResult {
	return Validate(v.cfg.Flow, v.Fields())
}

// Submit validates the current values and, when they pass, hands them to
// the controller. On a validation failure every field is marked touched and
// ErrInvalidFields is returned. The bool result reports whether the
// transport result was applied to this view.
func (v *View) Submit(ctx context.Context) (SubmissionState, bool, error) {
	v.mu.Lock()
	fields := v.fields.Clone()
	result := Validate(v.cfg.Flow, fields)
	if !result.Valid() {
		for _, n := range fields.Names() {
			v.touched[n] = true
		}
		v.mu.Unlock()
		return v.ctrl.State(), false, ErrInvalidFields
	}
	v.banner = ""
	v.mu.Unlock()

	state, applied, err := v.ctrl.Submit(ctx, fields)
	if err != nil || !applied {
		return state, applied, err
	}

	if state.Status == StatusFailed {
		v.mu.Lock()
		v.banner = state.Message
		v.mu.Unlock()
	}
	return state, true, nil
}

// DismissBanner clears the error banner. Fields and submission state are kept.
func (v *View) DismissBanner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner = ""
}

// Discard unmounts the view; late transport results are ignored.
func (v *View) Discard() {
	v.ctrl.Discard()
}

// Snapshot builds the render model of the view.
func (v *View) Snapshot() ViewState {
	submission := v.ctrl.State()

	v.mu.Lock()
	defer v.mu.Unlock()

	result := Validate(v.cfg.Flow, v.fields)
	state := ViewState{
		Config:      v.cfg,
		Fields:      make([]FieldState, 0, len(v.cfg.Fields)),
		Submission:  submission,
		Banner:      v.banner,
		SubmitLabel: v.cfg.SubmitLabel,
		ShowForm:    true,
		Valid:       result.Valid(),
	}

	for _, d := range v.cfg.Fields {
		fs := FieldState{
			FieldDescriptor: d,
			Value:           v.fields.Get(d.Name),
			Touched:         v.touched[d.Name],
		}
		if msg, ok := result.Error(d.Name); ok && fs.Touched {
			fs.Error = msg
		}
		state.Fields = append(state.Fields, fs)
	}

	pristine := v.fields.Equal(v.initial)
	state.SubmitDisabled = pristine || submission.Status == StatusPending
	if submission.Status == StatusPending {
		state.SubmitLabel = v.cfg.PendingLabel
	}
	if submission.Status == StatusSucceeded && v.cfg.SuccessRendersAs == SuccessMessage {
		state.ShowForm = false
	}
	return state
}
