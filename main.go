package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/cache"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/events"
	"github.com/Keoroanthony/go-storefront/internal/handlers"
	"github.com/Keoroanthony/go-storefront/internal/logger"
	"github.com/Keoroanthony/go-storefront/internal/middleware"
	"github.com/Keoroanthony/go-storefront/internal/notifier"
	"github.com/Keoroanthony/go-storefront/internal/pages"
)

func main() {
	cfg := config.Load()

	log := logger.Initialize(cfg.App.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.App.Validate(); err != nil {
		log.Fatal("Refusing insecure configuration", zap.Error(err))
	}
	if err := cfg.ResolveDBSecret(ctx); err != nil {
		log.Fatal("Failed to resolve database credentials", zap.Error(err))
	}
	if err := db.Init(cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := auth.Init(ctx, auth.Settings{
		JWTSecret:  cfg.App.JWTSecret,
		JWTTTL:     cfg.App.JWTTTL,
		OIDC:       cfg.OIDC,
		Production: cfg.App.Production(),
	}); err != nil {
		log.Fatal("Failed to initialize auth", zap.Error(err))
	}

	// ── catalog cache ──
	if cfg.Redis.URL != "" {
		store, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			log.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			cache.SetDefault(store)
			defer store.Close()
		}
	}

	// ── order events and notifications ──
	publisher, err := events.New(ctx, cfg.Events, cfg.AWS)
	if err != nil {
		log.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	events.SetDefault(publisher)
	defer publisher.Close()

	n, err := notifier.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	notifier.SetDefault(n)

	if cfg.App.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.App.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.App.RateLimit, cfg.App.RateBurst))

	// ── session store ──
	store := cookie.NewStore([]byte(cfg.App.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 14 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(auth.SessionName, store))

	// ── public endpoints ──
	r.GET("/health", handlers.Health)
	r.GET("/auth/oidc/login", auth.Login)
	r.GET("/auth/oidc/callback", auth.Callback)

	// ── JSON API ──
	handlers.RegisterAPI(r.Group("/api/v1"))

	// ── HTML site ──
	if err := pages.Register(r); err != nil {
		log.Fatal("Failed to load page templates", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
