package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// Session layout shared by the widget handlers and the auth guard.
const (
	SessionName             = "yauth-session"
	SessionKeyAuthenticated = "authenticated"
	SessionKeyWidgetID      = "widget_id"
	SessionKeyEmail         = "email"
)

// Session returns the application's cookie session for this request.
func Session(c echo.Context) (*sessions.Session, error) {
	return session.Get(SessionName, c)
}

// IsAuthenticated reports whether a login has succeeded in this session.
func IsAuthenticated(c echo.Context) bool {
	sess, err := Session(c)
	if err != nil {
		return false
	}
	ok, _ := sess.Values[SessionKeyAuthenticated].(bool)
	return ok
}

// RequireAuthenticated redirects visitors who have not logged in to loginPath.
func RequireAuthenticated(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				if c.Request().Header.Get("HX-Request") == "true" {
					c.Response().Header().Set("HX-Redirect", loginPath)
					return c.NoContent(http.StatusUnauthorized)
				}
				return c.Redirect(http.StatusSeeOther, loginPath)
			}
			return next(c)
		}
	}
}
