// Package server exposes the document store over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/config"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options describes how the server presents itself to clients
type Options struct {
	Mode       string // config.ModeAdmin or config.ModeMember
	UserID     string // The user a member-mode deployment logs in as
	SessionTTL time.Duration
}

// Server is the document server
type Server struct {
	store    *store.Store
	sessions *auth.Sessions
	opts     Options
	now      func() time.Time
	echo     *echo.Echo
}

// New creates a new server over st
func New(st *store.Store, opts Options) *Server {
	if opts.Mode == "" {
		opts.Mode = config.ModeAdmin
	}
	s := &Server{
		store:    st,
		sessions: auth.NewSessions(opts.SessionTTL),
		opts:     opts,
		now:      time.Now,
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Debug("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("remote", req.RemoteAddr))

			err := next(c)

			res := c.Response()
			logger.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	v1 := e.Group(api.Prefix)
	v1.GET("/health", s.handleHealth)
	v1.GET("/system", s.handleSystem)
	v1.GET("/document", s.handleGetDocument)
	v1.POST("/document", s.handlePostDocument)
	v1.POST("/auth", s.handleAuth)

	// Admin endpoints
	admin := v1.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/logout", s.handleLogout)
	admin.PUT("/settings", s.handleSettings)
	admin.POST("/users", s.handleAddUser)
	admin.DELETE("/users/:id", s.handleDeleteUser)
	admin.POST("/backup", s.handleBackup)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Server starting",
		logger.F("addr", addr),
		logger.F("mode", s.opts.Mode),
		logger.F("location", s.store.Location()))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Close closes the store
func (s *Server) Close() error {
	return s.store.Close()
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSystem(c echo.Context) error {
	return c.JSON(http.StatusOK, api.SystemInfo{
		Mode:       s.opts.Mode,
		UserID:     s.opts.UserID,
		ServerTime: s.now().Unix(),
		DataPath:   s.store.Location(),
	})
}
