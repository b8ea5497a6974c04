package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/constants"
	"github.com/yukikurage/pandora-pm/internal/handlers"
	"github.com/yukikurage/pandora-pm/internal/metrics"
	"github.com/yukikurage/pandora-pm/internal/services"
	"k8s.io/klog/v2"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	// Load configuration
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	backend, err := openStores(ctx, cfg)
	if err != nil {
		klog.Fatalf("Failed to open store: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		klog.Fatalf("Failed to register metrics: %v", err)
	}
	projects := metrics.InstrumentProjects(backend.projects, storeMetrics)

	// Services
	evaluator := access.NewEvaluator(access.Policy{
		StrictAssignee:      cfg.StrictAssignee,
		OpenProjectCreation: cfg.OpenProjectCreation,
	})
	logger := klog.Background().WithName("services")

	authService := services.NewAuthService(backend.users, logger.WithName("auth"))
	userService := services.NewUserService(backend.users, projects, evaluator, logger.WithName("users"))
	projectService := services.NewProjectService(services.ProjectServiceConfig{
		Projects:      projects,
		Planning:      backend.planning,
		Users:         backend.users,
		Evaluator:     evaluator,
		RevealMissing: cfg.RevealMissing,
		Log:           logger.WithName("projects"),
	})
	planningService := services.NewPlanningService(projects, backend.planning, evaluator, cfg.RevealMissing, logger.WithName("planning"))

	// Router
	r := gin.Default()
	store, err := newSessionStore(cfg)
	if err != nil {
		klog.Fatalf("Failed to create session store: %v", err)
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	handlers.Routes{
		Auth:           handlers.NewAuthHandler(authService),
		Projects:       handlers.NewProjectHandler(projectService),
		Tasks:          handlers.NewTaskHandler(projectService),
		Planning:       handlers.NewPlanningHandler(planningService),
		Admin:          handlers.NewAdminHandler(userService, projectService),
		Users:          backend.users,
		RequestTimeout: cfg.RequestTimeout,
	}.Register(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		klog.InfoS("Server starting", "addr", cfg.ServerAddr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "Server shutdown failed")
	}
	if err := backend.close(shutdownCtx); err != nil {
		klog.ErrorS(err, "Failed to close store")
	}
	klog.Info("Server exited")
}

// newSessionStore builds the Redis store, or a signed cookie store when
// SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	opts := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.SessionStore == config.SessionStoreCookie {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(opts)
		return store, nil
	}

	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisHost+":"+cfg.RedisPort,
		"", // username (empty for default user)
		"", // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(opts)
	return store, nil
}
