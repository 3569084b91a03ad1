package components

import (
	"fmt"

	"github.com/nfrund/yauth/internal/authflow"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

// Widget endpoints targeted by the htmx attributes below.
const (
	PathPage    = "/auth"
	PathWidget  = "/auth/widget"
	PathChange  = "/auth/widget/change"
	PathBlur    = "/auth/widget/blur"
	PathSubmit  = "/auth/widget/submit"
	PathDismiss = "/auth/widget/banner/dismiss"

	widgetID = "auth-widget"
	submitID = "auth-submit"
)

// PathNavigate is the endpoint that follows a footer link to flow.
func PathNavigate(flow authflow.Flow) string {
	return PathWidget + "/navigate/" + flow.String()
}

// WidgetProps is everything the widget needs to render itself.
type WidgetProps struct {
	State authflow.ViewState
	Links []authflow.Flow
}

// AuthWidget renders the whole widget. Every full-widget response replaces
// #auth-widget in place.
func AuthWidget(p WidgetProps) gomponents.Node {
	s := p.State
	return Div(
		ID(widgetID),
		Class("auth-widget"),
		H2(Class("auth-title"), gomponents.Text(s.Config.Title)),
		gomponents.If(s.Banner != "", banner(s.Banner)),
		gomponents.If(s.ShowForm, form(s)),
		gomponents.If(s.Submission.Status == authflow.StatusSucceeded, successNotice(s.Submission.Message)),
		footer(s.Config.Flow, p.Links),
	)
}

// FieldUpdate is the response to typing and blurring: the submit button and
// every field error, swapped out of band so the inputs keep focus and caret.
func FieldUpdate(s authflow.ViewState) gomponents.Node {
	nodes := []gomponents.Node{submitButton(s, true)}
	for _, f := range s.Fields {
		nodes = append(nodes, fieldError(f, true))
	}
	return gomponents.Group(nodes)
}

func form(s authflow.ViewState) gomponents.Node {
	nodes := []gomponents.Node{
		ID("auth-form"),
		Class("auth-form"),
		Method("post"),
		hx.Post(PathSubmit),
		hx.Target("#" + widgetID),
		hx.Swap("outerHTML"),
		gomponents.Attr("hx-disabled-elt", "#"+submitID),
		gomponents.Attr("novalidate"),
	}
	for _, f := range s.Fields {
		nodes = append(nodes, field(f))
	}
	nodes = append(nodes, submitButton(s, false))
	return Form(nodes...)
}

func field(f authflow.FieldState) gomponents.Node {
	inputID := "auth-input-" + f.Name
	return Div(
		ID("auth-field-"+f.Name),
		Class("auth-field"),
		// focusout bubbles from the input, blur does not.
		hx.Post(PathBlur),
		hx.Trigger("focusout"),
		hx.Include("closest form"),
		hx.Swap("none"),
		gomponents.Attr("hx-vals", fmt.Sprintf(`{"field":%q}`, f.Name)),
		Label(
			For(inputID),
			gomponents.Text(f.Label),
			gomponents.If(f.Required, Span(Class("required"), gomponents.Text(" *"))),
		),
		Input(
			ID(inputID),
			Name(f.Name),
			Type(string(f.Kind)),
			Value(f.Value),
			gomponents.If(f.Placeholder != "", Placeholder(f.Placeholder)),
			AutoComplete(autocomplete(f)),
			gomponents.If(f.Error != "", Aria("invalid", "true")),
			hx.Post(PathChange),
			hx.Trigger("input changed delay:300ms"),
			hx.Include("closest form"),
			hx.Swap("none"),
		),
		fieldError(f, false),
	)
}

// fieldError always renders, empty or not, so out-of-band swaps have a target.
func fieldError(f authflow.FieldState, oob bool) gomponents.Node {
	return P(
		ID("auth-error-"+f.Name),
		Class("field-error"),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.Text(f.Error),
	)
}

func submitButton(s authflow.ViewState, oob bool) gomponents.Node {
	return Button(
		ID(submitID),
		Type("submit"),
		Class("auth-submit"),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.If(s.SubmitDisabled, Disabled()),
		gomponents.Text(s.SubmitLabel),
	)
}

func banner(msg string) gomponents.Node {
	return Div(
		ID("auth-banner"),
		Class("banner banner-error"),
		Role("alert"),
		Span(gomponents.Text(msg)),
		Button(
			Type("button"),
			Class("banner-dismiss"),
			Aria("label", "Dismiss"),
			hx.Post(PathDismiss),
			hx.Target("#"+widgetID),
			hx.Swap("outerHTML"),
			gomponents.Text("×"),
		),
	)
}

func successNotice(msg string) gomponents.Node {
	return Div(Class("notice notice-success"), Role("status"), gomponents.Text(msg))
}

func footer(from authflow.Flow, links []authflow.Flow) gomponents.Node {
	if len(links) == 0 {
		return nil
	}
	items := make([]gomponents.Node, 0, len(links))
	for _, to := range links {
		prefix, label := linkText(from, to)
		items = append(items, P(
			Class("auth-link"),
			gomponents.If(prefix != "", gomponents.Text(prefix+" ")),
			A(
				Href("#"),
				hx.Post(PathNavigate(to)),
				hx.Target("#"+widgetID),
				hx.Swap("outerHTML"),
				gomponents.Text(label),
			),
		))
	}
	return Div(Class("auth-links"), gomponents.Group(items))
}

// linkText returns the lead-in text and the clickable label of a footer link.
func linkText(from, to authflow.Flow) (string, string) {
	switch to {
	case authflow.FlowForgotPassword:
		return "", "Forgot Password?"
	case authflow.FlowSignup:
		return "Don't have an account?", "Sign Up"
	case authflow.FlowLogin:
		if from == authflow.FlowForgotPassword {
			return "", "Back to Log In"
		}
		return "Already have an account?", "Log In"
	}
	return "", to.String()
}

func autocomplete(f authflow.FieldState) string {
	switch f.Name {
	case authflow.FieldEmail:
		return "email"
	case authflow.FieldConfirmPassword:
		return "new-password"
	default:
		return "current-password"
	}
}
