package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"health-monitor/auth"
	"health-monitor/confs"
	"health-monitor/db"
	"health-monitor/handlers"
	httpHandler "health-monitor/handlers/http"
	"health-monitor/logging"
	"health-monitor/metrics"
	"health-monitor/middlewares"
	"health-monitor/repositories"
	"health-monitor/usecases"
	"health-monitor/web"
	"health-monitor/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app          *gin.Engine
	cfg          *confs.Config
	db           db.Database
	loginLimiter *middlewares.RateLimiter
}

// NewServer wires repositories, use cases and handlers onto a gin engine.
func NewServer(cfg *confs.Config, database db.Database, recommender usecases.Recommender) (*Server, error) {
	s := &Server{
		app: gin.New(),
		cfg: cfg,
		db:  database,
	}
	if err := s.routes(recommender); err != nil {
		return nil, err
	}
	return s, nil
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.app
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	origins := s.cfg.Security.CORSAllowOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return config
}

func (s *Server) routes(recommender usecases.Recommender) error {
	s.app.Use(gin.Recovery(), logging.GinMiddleware(), metrics.GinMiddleware(), cors.New(s.corsConfig()))

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.app.SetHTMLTemplate(tmpl)

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})
	s.app.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize repositories
	userRepo := repositories.NewUserSQLRepository(s.db)
	dataRepo := repositories.NewHealthDataSQLRepository(s.db)

	// Live updates
	manager := ws.NewManager()
	wsHandler := handlers.NewWSHandler(manager, s.cfg.Security.CORSAllowOrigins)

	// Initialize use cases
	authUseCase := usecases.NewAuthUseCase(userRepo)
	healthUseCase := usecases.NewHealthUseCase(userRepo, dataRepo, recommender, manager)

	sec := s.cfg.Security
	issuer := auth.NewIssuer(sec.SecretKey, sec.SessionTTL)
	session := middlewares.NewSession(issuer, sec.CookieName)
	s.loginLimiter = middlewares.NewRateLimiter(sec.LoginRatePerMin)
	loginLimit := s.loginLimiter.Middleware()

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(authUseCase, issuer, session, sec.CookieSecure)
	healthHandler := httpHandler.NewHealthHandler(healthUseCase)

	// HTML pages
	s.app.GET("/", session.Optional(), healthHandler.Index)
	s.app.GET("/register", authHandler.RegisterPage)
	s.app.POST("/register", authHandler.Register)
	s.app.GET("/login", authHandler.LoginPage)
	s.app.POST("/login", loginLimit, authHandler.Login)

	pages := s.app.Group("", session.RequirePage())
	{
		pages.GET("/logout", authHandler.Logout)
		pages.GET("/add_data", healthHandler.AddDataPage)
		pages.POST("/add_data", healthHandler.AddData)
		pages.GET("/dashboard", healthHandler.Dashboard)
		pages.GET("/health_data_plot", healthHandler.Plot)
	}

	s.app.GET("/ws", session.RequireAPI(), wsHandler.HandleLiveWS)

	// Setup API routes
	api := s.app.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.APIRegister)
			authRoutes.POST("/login", loginLimit, authHandler.APILogin)
		}

		readings := api.Group("/readings", session.RequireAPI())
		{
			readings.GET("", healthHandler.ListReadings)
			readings.POST("", healthHandler.CreateReading)
			readings.GET("/distribution", healthHandler.Distribution)
		}
	}
	return nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.loginLimiter.StartCleanup(5 * time.Minute)
	defer s.loginLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
