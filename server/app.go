package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hjiwane/apartment-society-backend/config"
	"github.com/hjiwane/apartment-society-backend/internal/api"
	"github.com/hjiwane/apartment-society-backend/internal/core"
	"github.com/hjiwane/apartment-society-backend/internal/db"
	"github.com/hjiwane/apartment-society-backend/internal/health"
	"github.com/hjiwane/apartment-society-backend/internal/identity"
	"github.com/hjiwane/apartment-society-backend/internal/logs"
	"github.com/hjiwane/apartment-society-backend/internal/memstore"
	"github.com/hjiwane/apartment-society-backend/internal/middleware"
	"github.com/hjiwane/apartment-society-backend/internal/repo"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

type App struct {
	cfg        *config.Config
	Log        *logrus.Logger
	db         *gorm.DB
	Store      store.Store
	Router     *mux.Router
	handler    http.Handler
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	l, err := logs.New(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	a.Log = l

	/* 2) Хранилище: БД или in-memory */
	if drv := cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("db open failed: %w", err)
		}
		a.db = d
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(d); err != nil {
				return fmt.Errorf("db migrate failed: %w", err)
			}
		}
		a.Store = repo.NewStore(d)
	} else {
		a.Log.Warn("database.driver is empty: using in-memory store, data is lost on restart")
		a.Store = memstore.New()
	}

	/* 3) Identity + ядро */
	tokens, err := identity.NewTokens(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.AccessTokenTTL())
	if err != nil {
		return err
	}
	svc := core.New(core.Deps{Store: a.Store, Log: a.Log}, identity.Hasher{Cost: cfg.Auth.BcryptCost}, tokens)

	/* 4) Router + middleware */
	a.Router = mux.NewRouter()
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer(a.Log),
		middleware.Logger(a.Log),
	)
	health.RegisterRoutes(a.Router, a.Store, a.Log) // /healthz, /readyz
	api.New(svc, a.Log).Register(a.Router)

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: cfg.CORS.AllowCredentials,
	})
	a.handler = co.Handler(a.Router)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		a.Log.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

// Handler: корневой http.Handler (CORS поверх роутера).
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case s := <-sigs:
			a.Log.Infof("shutdown signal: %s", s)
			a.cancel()
		case <-a.ctx.Done():
		}
	}()

	// Жёсткие таймауты: это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.Log.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-a.ctx.Done():
	case runErr = <-errc:
		a.Log.WithError(runErr).Error("http server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("http shutdown: %v", err)
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return runErr
}
