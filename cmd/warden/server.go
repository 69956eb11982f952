package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/time/rate"

	"github.com/Tammibriggs/we-conect-community/automod/cachestore"
	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/automod/countstore"
	"github.com/Tammibriggs/we-conect-community/automod/engine"
	"github.com/Tammibriggs/we-conect-community/store"
)

type Server struct {
	echo    *echo.Echo
	logger  *slog.Logger
	engine  *engine.Engine
	store   *store.MongoStore
	adapter *classifier.Adapter
}

type Config struct {
	MongoURL        string
	MongoDatabase   string
	RedisURL        string
	GeminiAPIKey    string
	GeminiModel     string
	SlackWebhookURL string
	UploadsDir      string
	Logger          *slog.Logger
}

func NewServer(ctx context.Context, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db, err := store.NewMongoStore(ctx, config.MongoURL, config.MongoDatabase)
	if err != nil {
		return nil, err
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		// check redis connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
	}

	var adapter *classifier.Adapter
	if config.GeminiAPIKey != "" {
		logger.Info("configuring generated-filter classifier")
		gc := classifier.NewGeminiClient(config.GeminiAPIKey)
		if config.GeminiModel != "" {
			gc.Model = config.GeminiModel
		}
		gc.Limiter = rate.NewLimiter(rate.Limit(2), 4)
		adapter = classifier.NewAdapter(gc, logger)
	}

	eng := engine.Engine{
		Logger:   logger,
		Configs:  db,
		History:  db,
		Cache:    cache,
		Counters: counters,
		Media:    &diskMediaCleaner{Dir: config.UploadsDir, Logger: logger},
	}
	if adapter != nil {
		eng.Classifier = adapter
	}
	if config.SlackWebhookURL != "" {
		eng.Notifier = &engine.SlackNotifier{SlackWebhookURL: config.SlackWebhookURL}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("warden"))
	e.Use(middleware.BodyLimit("16M"))

	srv := &Server{
		echo:    e,
		logger:  logger,
		engine:  &eng,
		store:   db,
		adapter: adapter,
	}

	e.GET("/_health", srv.handleHealthCheck)
	e.POST("/api/communities/:communityID/posts", srv.handleCreatePost)
	e.POST("/api/community-posts/like", srv.handleToggleLike)
	e.GET("/api/communities/:communityID/generated-filters", srv.handleEvaluateGeneratedFilter)
	e.POST("/api/communities/:communityID/generated-filters", srv.handleSaveGeneratedFilter)
	e.DELETE("/api/communities/:communityID/generated-filters", srv.handleDeleteGeneratedFilter)

	return srv, nil
}

// Run blocks until shutdown signal or server failure.
func (s *Server) Run(ctx context.Context, bind string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(bind); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutCtx); err != nil {
		return err
	}
	return s.store.Close(shutCtx)
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(200, map[string]any{"status": "ok"})
}
