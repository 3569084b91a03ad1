package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/yauth/internal/config"
	"github.com/nfrund/yauth/internal/handlers"
	appmiddleware "github.com/nfrund/yauth/internal/middleware"
	"github.com/nfrund/yauth/internal/rendering"
	"github.com/nfrund/yauth/internal/widget"
)

// Dependencies are the services the HTTP server is built from.
type Dependencies struct {
	Config   config.Provider
	Widgets  *widget.Store
	Renderer rendering.Renderer
	Logger   *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E      *echo.Echo
	Cfg    config.Provider
	logger *slog.Logger

	homeHandler   *handlers.HomeHandler
	widgetHandler *handlers.WidgetHandler
}

// New creates a Server with middleware and routes registered.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil || deps.Widgets == nil {
		return nil, errors.New("server: config and widget store are required")
	}
	if deps.Renderer == nil {
		deps.Renderer = rendering.NewUniversalRenderer()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger(deps.Logger))
	e.Use(middleware.Recover())

	store := sessions.NewCookieStore([]byte(deps.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	setupErrorHandling(e)

	s := &Server{
		E:             e,
		Cfg:           deps.Config,
		logger:        deps.Logger,
		homeHandler:   handlers.NewHomeHandler(deps.Widgets, deps.Renderer),
		widgetHandler: handlers.NewWidgetHandler(deps.Widgets, deps.Renderer, deps.Config.GetPostLoginRedirect()),
	}
	s.RegisterRoutes()
	return s, nil
}

// setupErrorHandling logs unhandled errors with a stack trace before
// falling back to echo's default response.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		logger := appmiddleware.FromContext(c.Request().Context())

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code >= http.StatusInternalServerError {
				logger.Error("Internal Server Error", "error", err)
			}
		} else {
			logger.Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"stack_trace", string(debug.Stack()),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
