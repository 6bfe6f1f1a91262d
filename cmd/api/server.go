package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadp "budget-portal/internal/adapter/http"
	portalmw "budget-portal/internal/adapter/middleware"
	"budget-portal/internal/adapter/repository/mysql"
	"budget-portal/internal/adapter/storage/disk"
	"budget-portal/internal/auth"
	"budget-portal/internal/config"
	"budget-portal/internal/infrastructure/cache"
	"budget-portal/internal/infrastructure/db"
	"budget-portal/internal/infrastructure/logger"
	"budget-portal/internal/infrastructure/metrics"
	authuc "budget-portal/internal/usecase/auth"
	programuc "budget-portal/internal/usecase/program"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	userCacheSize = 1024
	userCacheTTL  = time.Minute
)

// server owns every long-lived dependency of the API process.
type server struct {
	e       *echo.Echo
	db      *gorm.DB
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newServer(cfg *config.Config, log zerolog.Logger) (*server, error) {
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), db.WithLogger(logger.Component(log, "gorm")))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := mysql.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store, err := disk.New(cfg.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	s := &server{db: gdb, metrics: metrics.New(), log: log}
	if cfg.IdempotencyEnabled() {
		if s.rdb, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
	}

	users := mysql.NewUserRepository(gdb)
	programs := programuc.NewUsecase(
		mysql.NewProgramRepository(gdb),
		mysql.NewGormUoW(gdb),
		store,
		programuc.WithRecorder(s.metrics),
		programuc.WithLogger(logger.Component(log, "lifecycle")),
	)
	login := authuc.NewUsecase(users, tokens, logger.Component(log, "auth"))
	authn := portalmw.NewAuthenticator(tokens, users, userCacheSize, userCacheTTL, logger.Component(log, "authn"))

	httpLog := logger.Component(log, "http")
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	h := httpadp.NewHandler(sqlDB)
	ph := httpadp.NewProgramHandler(programs, store, cfg.MaxFilesPerRequest, httpLog)
	ah := httpadp.NewAuthHandler(login, httpLog)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(s.requestLogger(httpLog), middleware.Recover())
	// every allowed file at full size plus the form fields
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB*cfg.MaxFilesPerRequest+1)))

	// routes
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	e.POST("/auth/login", ah.Login)

	guarded := []echo.MiddlewareFunc{authn.Middleware()}
	if s.rdb != nil {
		guarded = append(guarded, portalmw.Idempotency(s.rdb, cfg.IdempotencyTTL(), logger.Component(log, "idempotency")))
	}
	ph.Register(e.Group("/programs", guarded...))
	ph.RegisterDocuments(e, disk.DefaultPublicPrefix)

	s.e = e
	return s, nil
}

func (s *server) requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.metrics.ObserveRequest(v.Method, v.RoutePath, v.Status)
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).
				Dur("latency", v.Latency).Msg("request")
			return nil
		},
	})
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (s *server) run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- s.e.Start(addr)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("shutting down")
	return s.e.Shutdown(shutdownCtx)
}

func (s *server) close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
