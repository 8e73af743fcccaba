package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livepoll/config"
	"livepoll/internal/handler"
	"livepoll/internal/middleware"
	"livepoll/internal/transport/httpdto"
	"livepoll/internal/websocket"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Polls *handler.PollHandler
	Votes *handler.VoteHandler
	Admin *handler.AdminHandler
	Live  *websocket.Handler
}

// Guards are the middlewares placed in front of protected routes. Signed
// admits any valid token, Admin only admin tokens. VoteLimit may be nil when
// no rate limiter is configured.
type Guards struct {
	Signed    gin.HandlerFunc
	Admin     gin.HandlerFunc
	VoteLimit gin.HandlerFunc
}

// HealthCheck reports whether the ledger is reachable.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	// ClientIP feeds the one-vote-per-address rule, so forwarding headers
	// count only when they come from a configured proxy.
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		l.Errorf("invalid TRUSTED_PROXIES, trusting none: %v", err)
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(middleware.Recovery(l))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, guards Guards, health HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	voteChain := []gin.HandlerFunc{}
	if guards.VoteLimit != nil {
		voteChain = append(voteChain, guards.VoteLimit)
	}

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/auth/register", handlers.Auth.Register)
		v1.POST("/auth/token", handlers.Auth.Login)
		v1.POST("/auth/logout", guards.Signed, handlers.Auth.Logout)

		v1.GET("/polls", handlers.Polls.List)
		v1.GET("/polls/:id", handlers.Polls.Get)
		v1.GET("/polls/:id/results", handlers.Votes.Results)
		v1.GET("/polls/:id/live", handlers.Live.Live)
		v1.POST("/polls/:id/votes", append(voteChain, handlers.Votes.Cast)...)
	}

	admin := v1.Group("/admin", guards.Admin)
	{
		admin.POST("/polls", handlers.Polls.Create)
		admin.PATCH("/polls/:id/status", handlers.Polls.SetStatus)
		admin.POST("/polls/:id/release", handlers.Admin.Release)
		admin.GET("/polls/:id/history", handlers.Admin.History)
		admin.GET("/polls/:id/voters", handlers.Admin.Voters)
		admin.POST("/polls/:id/history/export", handlers.Admin.Export)
	}

	// Form posts
	s.engine.POST("/vote", append(voteChain, handlers.Votes.CastForm)...)
	s.engine.POST("/admin/release-ip", guards.Admin, handlers.Admin.ReleaseForm)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
