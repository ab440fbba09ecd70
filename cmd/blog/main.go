package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vaughan-dsouza/goblog/internal/auth"
	"github.com/vaughan-dsouza/goblog/internal/config"
	"github.com/vaughan-dsouza/goblog/internal/db"
	"github.com/vaughan-dsouza/goblog/internal/handlers"
	"github.com/vaughan-dsouza/goblog/internal/metrics"
	"github.com/vaughan-dsouza/goblog/internal/middleware"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/views"
)

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	if !foundEnv {
		logger.Info("no .env file found")
	}

	ctx := context.Background()

	dbConn, err := db.Connect(ctx, db.Options{
		Driver:      cfg.DatabaseDriver,
		DSN:         cfg.DatabaseURL,
		MaxOpen:     cfg.DBMaxOpen,
		MaxIdle:     cfg.DBMaxIdle,
		MaxLifetime: cfg.DBMaxLifetime,
	})
	if err != nil {
		logger.WithError(err).Fatal("db connect")
	}
	defer dbConn.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(dbConn); err != nil {
			logger.WithError(err).Fatal("db migrate")
		}
		if v, dirty, err := db.Version(dbConn); err == nil {
			logger.WithFields(logrus.Fields{"version": v, "dirty": dirty}).Info("schema up to date")
		}
	}

	st := store.New(dbConn)

	var sessions auth.SessionStore = st.Sessions
	if cfg.SessionStore == config.SessionStoreRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("redis connect")
		}
		defer rdb.Close()
		sessions = store.NewRedisSessions(rdb)
	}

	authSvc := auth.NewService(st.Users, sessions, auth.Options{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
	})

	renderer, err := views.New()
	if err != nil {
		logger.WithError(err).Fatal("load templates")
	}

	limiter := middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst, logger)

	h := handlers.NewHandler(handlers.Config{
		Store:        st,
		Auth:         authSvc,
		Views:        renderer,
		Log:          logger,
		Metrics:      metrics.New(),
		LoginLimiter: limiter,
		CookieSecure: cfg.CookieSecure,
		TrustProxy:   cfg.TrustProxy,
	})

	// Janitor: drop expired sessions and idle limiter entries
	janitor := cron.New()
	if _, err := janitor.AddFunc(cfg.SessionPurge, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := authSvc.PurgeExpired(ctx)
		if err != nil {
			logger.WithError(err).Error("purge expired sessions")
			return
		}
		idle := limiter.Cleanup(time.Hour)
		logger.WithFields(logrus.Fields{"sessions": n, "limiters": idle}).Info("janitor run")
	}); err != nil {
		logger.WithError(err).Fatal("schedule janitor")
	}
	janitor.Start()

	errorLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     log.New(errorLog, "", 0),
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	<-janitor.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	logger.Info("server exited")
}

func newLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
