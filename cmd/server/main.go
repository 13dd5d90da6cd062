package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aulanet/internal/core/ports"
	"aulanet/internal/core/services"
	httphandlers "aulanet/internal/handlers/http"
	"aulanet/internal/infrastructure/email"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/internal/infrastructure/monitoring"
	"aulanet/internal/infrastructure/realtime"
	"aulanet/internal/infrastructure/repositories"
	"aulanet/internal/infrastructure/repositories/sqlite"
	"aulanet/internal/infrastructure/storage"
	"aulanet/pkg/config"
	"aulanet/pkg/logger"
	"aulanet/pkg/tracing"
)

func main() {
	startTime := time.Now()

	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "aulanet",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalw("failed to open database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	chatRepo := sqlite.NewChatRepository(db)
	calendarRepo := sqlite.NewCalendarRepository(db)
	videoRepo := sqlite.NewVideoRepository(db)

	counterStore := repositories.NewCounterStore(context.Background(), cfg.Redis, log)

	objectStorage, err := storage.NewMinioStorage(cfg.Storage, log)
	if err != nil {
		log.Fatalw("failed to create object storage client", "error", err)
	}

	var mailer ports.Mailer
	if cfg.Email.Enabled {
		mailer = email.NewSendgridMailer(cfg.Email, log)
	} else {
		mailer = email.NewConsoleMailer(log)
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	userService := services.NewUserService(userRepo, authService, objectStorage, cfg.Storage.UserImageBucket, log)
	chatService := services.NewChatService(chatRepo, objectStorage, cfg.Storage.ChatFilesBucket, log)
	calendarService := services.NewCalendarService(calendarRepo, userRepo, mailer, log)
	videoService := services.NewVideoService(videoRepo, objectStorage, counterStore, cfg.Storage.VideosBucket, cfg.Storage.ThumbnailBucket, log)

	collector := monitoring.NewCollector()
	socketServer := realtime.NewServer(chatService, cfg.Realtime, collector, log)

	userHandler := httphandlers.NewUserHandler(userService, authService)
	videoHandler := httphandlers.NewVideoHandler(videoService, authService)
	calendarHandler := httphandlers.NewCalendarHandler(calendarService, authService)
	calendarUsersHandler := httphandlers.NewCalendarUsersHandler(calendarService, authService)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg.RateLimiting))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	if cfg.Monitoring.PrometheusEnabled {
		router.Use(middleware.MetricsMiddleware(collector))
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	userHandler.SetupRoutes(router)
	videoHandler.SetupRoutes(router)
	calendarHandler.SetupRoutes(router)
	calendarUsersHandler.SetupRoutes(router)

	router.GET("/socket", gin.WrapF(socketServer.HandleSocket))
	router.Static("/images", cfg.Server.StaticDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer", "error", err)
	}

	log.Info("server stopped")
}
