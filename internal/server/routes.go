package server

import (
	"github.com/nfrund/yauth/internal/middleware"
	"github.com/nfrund/yauth/web/src/templates/components"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/", s.homeHandler.HomeGet)
	s.E.GET("/logout", s.homeHandler.LogoutGet)
	s.E.GET("/health", s.homeHandler.HealthGet)
	s.E.GET("/account", s.homeHandler.AccountGet, middleware.RequireAuthenticated(components.PathPage))

	s.E.GET(components.PathPage, s.widgetHandler.PageGet)

	w := s.E.Group(components.PathWidget)
	w.GET("", s.widgetHandler.WidgetGet)
	w.POST("/navigate/:flow", s.widgetHandler.NavigatePost)
	w.POST("/change", s.widgetHandler.ChangePost)
	w.POST("/blur", s.widgetHandler.BlurPost)
	w.POST("/submit", s.widgetHandler.SubmitPost, middleware.SubmitRateLimiter())
	w.POST("/banner/dismiss", s.widgetHandler.DismissBannerPost)
}
