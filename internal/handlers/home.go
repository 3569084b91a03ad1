package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/yauth/internal/middleware"
	"github.com/nfrund/yauth/internal/rendering"
	"github.com/nfrund/yauth/internal/view"
	"github.com/nfrund/yauth/internal/widget"
	"github.com/nfrund/yauth/web/src/templates/layouts"
	"github.com/nfrund/yauth/web/src/templates/pages"
)

// MsgLoggedOut is flashed after logging out.
const MsgLoggedOut = "You have been logged out."

// HomeHandler serves the pages around the widget.
type HomeHandler struct {
	store    *widget.Store
	renderer rendering.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(store *widget.Store, renderer rendering.Renderer) *HomeHandler {
	return &HomeHandler{store: store, renderer: renderer}
}

// HomeGet renders the landing page (GET /).
func (h *HomeHandler) HomeGet(c echo.Context) error {
	content := pages.HomeContent(middleware.IsAuthenticated(c))
	page := layouts.Base("Home", view.GetFlashData(c), view.AdaptGomponentToTempl(content))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// AccountGet shows who is logged in (GET /account). Guarded by
// middleware.RequireAuthenticated.
func (h *HomeHandler) AccountGet(c echo.Context) error {
	var email string
	if sess, err := middleware.Session(c); err == nil {
		email, _ = sess.Values[middleware.SessionKeyEmail].(string)
	}
	page := layouts.Base("Account", view.GetFlashData(c), view.AdaptGomponentToTempl(pages.AccountContent(email)))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// LogoutGet clears the session and unmounts the widget (GET /logout).
func (h *HomeHandler) LogoutGet(c echo.Context) error {
	sess, err := middleware.Session(c)
	if err != nil {
		return err
	}
	if id, ok := sess.Values[middleware.SessionKeyWidgetID].(string); ok {
		h.store.Remove(id)
	}
	delete(sess.Values, middleware.SessionKeyWidgetID)
	delete(sess.Values, middleware.SessionKeyAuthenticated)
	delete(sess.Values, middleware.SessionKeyEmail)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	view.SetFlashSuccess(c, MsgLoggedOut)
	return c.Redirect(http.StatusSeeOther, "/")
}

// HealthGet reports liveness (GET /health).
func (h *HomeHandler) HealthGet(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Widgets: h.store.Len()})
}
