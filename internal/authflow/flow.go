// Package authflow implements the view-and-validation core of the
// authentication widget: the three flows, their validation rules, the
// submission lifecycle around the injected transport and the coordinator
// that decides which view is mounted.
package authflow

import (
	"errors"
	"fmt"
)

// Flow identifies one of the authentication use cases the widget offers.
type Flow int

const (
	FlowLogin Flow = iota
	FlowSignup
	FlowForgotPassword
)

// Flows lists every flow in display order.
var Flows = []Flow{FlowLogin, FlowSignup, FlowForgotPassword}

// ErrUnknownFlow is returned when a flow name cannot be parsed.
var ErrUnknownFlow = errors.New("unknown auth flow")

// String returns the URL-safe name of the flow.
func (f Flow) String() string {
	switch f {
	case FlowLogin:
		return "login"
	case FlowSignup:
		return "signup"
	case FlowForgotPassword:
		return "forgot-password"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

// ParseFlow maps a flow name produced by String back to its Flow.
func ParseFlow(s string) (Flow, error) {
	for _, f := range Flows {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFlow, s)
}
