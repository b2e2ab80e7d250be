// Пакет esgreport предоставляет HTTP API редактора ESG отчетов: документы, сеансы редактирования
// с командами и историей правок, версии документов и экспорт.
//
// Основные возможности:
//   - Создание, чтение, полное сохранение и удаление документов.
//   - Выполнение команд редактора, отмена и повтор, журнал команд.
//   - Разбор HTML поверхности блока во фрагменты и обратная отрисовка.
//   - Версии документа: создание, список, восстановление, удаление.
//   - Экспорт в Markdown.
//   - Фоновое автосохранение, закрытие простаивающих сеансов и очистка автоматических версий.
package esgreport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/config"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/cronmanager"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/drafts"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/sessions"
	stack_error "github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/stack-error"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

//go:generate go run ../../cmd/docsgen/main.go -src apierrors/apierrors.go -out ../../docs/api_errors.md

type Services struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *sessions.Manager
	version  string

	registerer prometheus.Registerer
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "ESGReport")
		return next(c)
	}
}

func NewServices(db *gorm.DB, cfg *config.Config, sm *sessions.Manager, version string) *Services {
	return &Services{
		db:         db,
		cfg:        cfg,
		sessions:   sm,
		version:    version,
		registerer: prometheus.DefaultRegisterer,
	}
}

// Jobs фоновые задачи сервиса.
func (s *Services) Jobs() cronmanager.JobRegistry {
	return cronmanager.JobRegistry{
		"sessions_flush": cronmanager.Job{
			Func:     s.flushSessions,
			Schedule: s.cfg.AutosaveSchedule,
		},
		"sessions_evict": cronmanager.Job{
			Func:     s.evictSessions,
			Schedule: "*/5 * * * *", // every 5 minutes
		},
		"versions_prune": cronmanager.Job{
			Func:     s.pruneVersions,
			Schedule: "0 3 * * *", // daily at 03:00
		},
	}
}

func (s *Services) flushSessions() {
	saved, err := s.sessions.FlushDirty()
	if err != nil {
		stack_error.LogError(nil, stack_error.TrackErrorStack(err).AddContext("job", "sessions_flush"))
	}
	if saved > 0 {
		slog.Info("Sessions autosaved", "count", saved)
	}
}

func (s *Services) evictSessions() {
	if n := s.sessions.EvictIdle(s.cfg.SessionIdle()); n > 0 {
		slog.Info("Idle sessions closed", "count", n, "open", s.sessions.Len())
	}
}

func (s *Services) pruneVersions() {
	n, err := dao.PruneAutoSavedVersions(s.db, s.cfg.AutoVersionsKeep)
	if err != nil {
		slog.Error("Prune auto-saved versions", "err", err)
		return
	}
	if n > 0 {
		slog.Info("Auto-saved versions pruned", "count", n)
	}
}

// NewEcho создает сервер со всеми middleware и маршрутами.
func (s *Services) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: "10M",
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "esgreport",
		Registerer: s.registerer,
	}))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	s.AddDocumentServices(apiGroup)
	s.AddEditorServices(apiGroup)
	s.AddVersionServices(apiGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":          s.version,
			"history_capacity": s.cfg.HistoryCapacity,
			"open_sessions":    s.sessions.Len(),
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if s.cfg.FrontFilesPath != "" {
		slog.Info("Start front routing")
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  s.cfg.FrontFilesPath,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
		}))
	}

	return e
}

func Server(db *gorm.DB, cfg *config.Config, version string) {
	draftStore, err := drafts.Open(cfg.DraftsDBPath, cfg.DraftsTTL())
	if err != nil {
		slog.Error("Open drafts db", "path", cfg.DraftsDBPath, "err", err)
		os.Exit(1)
	}

	sm := sessions.NewManager(db, draftStore, sessions.Options{
		HistoryCapacity: cfg.HistoryCapacity,
		ContentDelay:    cfg.ContentDebounce(),
	})
	s := NewServices(db, cfg, sm, version)

	cronManager := cronmanager.NewCronManager(s.Jobs())
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	cronManager.Start()

	e := s.NewEcho()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prometheus metrics
	metrics := echo.New()
	metrics.HideBanner = true
	go func() {
		bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "esgreport",
			Name:      "boot_time",
			Help:      "Server startup time",
		})
		bootTimeGauge.Set(float64(time.Now().UnixMilli()))

		if err := prometheus.Register(bootTimeGauge); err != nil {
			slog.Error("Register boot time gauge", "err", err)
			os.Exit(1)
		}

		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
		}
	}()

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server fail", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	cronManager.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown", "err", err)
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown", "err", err)
	}

	if err := sm.CloseAll(); err != nil {
		stack_error.LogError(nil, stack_error.TrackErrorStack(err).AddContext("stage", "shutdown"))
	}
	if err := draftStore.Close(); err != nil {
		slog.Error("Close drafts db", "err", err)
	}
}
