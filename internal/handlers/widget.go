package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/middleware"
	"github.com/nfrund/yauth/internal/rendering"
	"github.com/nfrund/yauth/internal/view"
	"github.com/nfrund/yauth/internal/widget"
	"github.com/nfrund/yauth/web/src/templates/components"
	"github.com/nfrund/yauth/web/src/templates/layouts"
	"github.com/nfrund/yauth/web/src/templates/pages"
)

// WidgetHandler serves the auth widget. Each browser session owns one
// coordinator in the widget store; every request operates on that one.
type WidgetHandler struct {
	store         *widget.Store
	renderer      rendering.Renderer
	loginRedirect string
}

// NewWidgetHandler creates a new WidgetHandler. loginRedirect is where the
// browser is sent after a successful login.
func NewWidgetHandler(store *widget.Store, renderer rendering.Renderer, loginRedirect string) *WidgetHandler {
	return &WidgetHandler{
		store:         store,
		renderer:      renderer,
		loginRedirect: loginRedirect,
	}
}

// PageGet mounts a fresh widget at the Login view and renders it inside the
// page layout (GET /auth).
func (h *WidgetHandler) PageGet(c echo.Context) error {
	id, coord, err := h.mount(c)
	if err != nil {
		return err
	}
	coord.Reset()
	middleware.FromContext(c.Request().Context()).Debug("Widget mounted", "widget_id", id)

	content := pages.AuthContent(components.AuthWidget(props(coord)))
	page := layouts.Base("Log In", view.GetFlashData(c), view.AdaptGomponentToTempl(content))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// WidgetGet re-renders the current widget (GET /auth/widget).
func (h *WidgetHandler) WidgetGet(c echo.Context) error {
	_, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	return h.renderWidget(c, coord)
}

// NavigatePost follows a footer link (POST /auth/widget/navigate/:flow).
func (h *WidgetHandler) NavigatePost(c echo.Context) error {
	var req NavigateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	flow, err := authflow.ParseFlow(req.Flow)
	if err != nil {
		return badRequest(c, "unknown_flow", err)
	}

	_, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	if _, err := coord.Navigate(flow); err != nil {
		if errors.Is(err, authflow.ErrNoLink) {
			return badRequest(c, "no_link", err)
		}
		return err
	}
	return h.renderWidget(c, coord)
}

// ChangePost records field values while the user types
// (POST /auth/widget/change).
func (h *WidgetHandler) ChangePost(c echo.Context) error {
	_, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	v := coord.View()
	if err := applyFormValues(c, v); err != nil {
		return err
	}
	return h.renderer.RenderPage(c, http.StatusOK, components.FieldUpdate(v.Snapshot()))
}

// BlurPost records field values and marks the named field as touched
// (POST /auth/widget/blur).
func (h *WidgetHandler) BlurPost(c echo.Context) error {
	var req BlurRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	v := coord.View()
	if err := applyFormValues(c, v); err != nil {
		return err
	}
	if err := v.Blur(req.Field); err != nil {
		if errors.Is(err, authflow.ErrUnknownField) {
			// The form belongs to a view that has since been replaced.
			return c.NoContent(http.StatusNoContent)
		}
		return err
	}
	return h.renderer.RenderPage(c, http.StatusOK, components.FieldUpdate(v.Snapshot()))
}

// SubmitPost submits the mounted view (POST /auth/widget/submit).
func (h *WidgetHandler) SubmitPost(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	id, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	v := coord.View()
	if err := applyFormValues(c, v); err != nil {
		return err
	}

	state, err := coord.Submit(ctx)
	switch {
	case errors.Is(err, authflow.ErrInvalidFields):
		logger.Debug("Submission rejected by validation", "widget_id", id, "flow", v.Flow().String())
	case errors.Is(err, authflow.ErrSubmissionPending):
		logger.Debug("Submission already pending", "widget_id", id)
	case err != nil:
		return err
	default:
		logger.Info("Submission finished", "widget_id", id, "flow", v.Flow().String(), "status", state.Status.String())
	}

	if coord.Authenticated() {
		// A signed-in widget is unmounted; the next visit to the auth page
		// mounts a new one.
		if err := h.markSessionAuthenticated(c, v.Fields().Get(authflow.FieldEmail)); err != nil {
			return err
		}
		defer h.store.Remove(id)
		c.Response().Header().Set("HX-Redirect", h.loginRedirect)
	}
	return h.renderWidget(c, coord)
}

// DismissBannerPost hides the submission error banner
// (POST /auth/widget/banner/dismiss).
func (h *WidgetHandler) DismissBannerPost(c echo.Context) error {
	_, coord, err := h.mounted(c)
	if err != nil || coord == nil {
		return h.orRemount(c, err)
	}
	coord.View().DismissBanner()
	return h.renderWidget(c, coord)
}

// mount returns the widget bound to this browser session, creating one when
// the session has none or it has expired.
func (h *WidgetHandler) mount(c echo.Context) (string, *authflow.Coordinator, error) {
	sess, err := middleware.Session(c)
	if err != nil {
		return "", nil, err
	}
	current, _ := sess.Values[middleware.SessionKeyWidgetID].(string)
	id, coord := h.store.GetOrCreate(current)
	if id != current {
		sess.Values[middleware.SessionKeyWidgetID] = id
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return "", nil, err
		}
	}
	return id, coord, nil
}

// mounted returns the widget bound to this browser session. The coordinator
// is nil when the session has no live widget; only the auth page mounts one.
func (h *WidgetHandler) mounted(c echo.Context) (string, *authflow.Coordinator, error) {
	sess, err := middleware.Session(c)
	if err != nil {
		return "", nil, err
	}
	id, _ := sess.Values[middleware.SessionKeyWidgetID].(string)
	coord, ok := h.store.Get(id)
	if !ok {
		return "", nil, nil
	}
	return id, coord, nil
}

// orRemount returns err, or sends the browser back to the auth page when the
// session has no live widget.
func (h *WidgetHandler) orRemount(c echo.Context, err error) error {
	if err != nil {
		return err
	}
	middleware.FromContext(c.Request().Context()).Debug("No widget mounted, redirecting", "path", c.Path())
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", components.PathPage)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, components.PathPage)
}

func (h *WidgetHandler) markSessionAuthenticated(c echo.Context, email string) error {
	sess, err := middleware.Session(c)
	if err != nil {
		return err
	}
	sess.Values[middleware.SessionKeyAuthenticated] = true
	sess.Values[middleware.SessionKeyEmail] = email
	delete(sess.Values, middleware.SessionKeyWidgetID)
	return sess.Save(c.Request(), c.Response())
}

func (h *WidgetHandler) renderWidget(c echo.Context, coord *authflow.Coordinator) error {
	return h.renderer.RenderPage(c, http.StatusOK, components.AuthWidget(props(coord)))
}

func props(coord *authflow.Coordinator) components.WidgetProps {
	return components.WidgetProps{
		State: coord.View().Snapshot(),
		Links: coord.Links(),
	}
}

// applyFormValues copies the posted values of the view's fields. Fields
// missing from the form are left alone.
func applyFormValues(c echo.Context, v *authflow.View) error {
	form, err := c.FormParams()
	if err != nil {
		return badRequest(c, "bad_form", err)
	}
	for _, name := range v.Config().FieldNames() {
		if _, ok := form[name]; !ok {
			continue
		}
		if err := v.Change(name, form.Get(name)); err != nil {
			return err
		}
	}
	return nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return badRequest(c, "bad_request", err)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, "invalid_request", err)
	}
	return nil
}

func badRequest(c echo.Context, code string, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: code, Message: err.Error()})
}
