package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/config"
	"github.com/muniwatch/debt-service/internal/handler"
	"github.com/muniwatch/debt-service/internal/integrations/statcan"
	"github.com/muniwatch/debt-service/internal/integrations/tradingview"
	"github.com/muniwatch/debt-service/internal/integrations/valet"
	"github.com/muniwatch/debt-service/internal/ledger"
	"github.com/muniwatch/debt-service/internal/rates"
	"github.com/muniwatch/debt-service/internal/service"
	"github.com/muniwatch/debt-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Rate source chain, most trusted first. A non-zero manual override is
	// just the highest-priority candidate.
	var candidates []rates.Provider
	if cfg.ManualOverride != 0 {
		candidates = append(candidates, rates.NewStaticProvider("manual_override", cfg.ManualOverride))
	}
	candidates = append(candidates,
		statcan.NewClient(cfg.StatCanURL, cfg.StatCanVector, cfg.SourceTimeout, logger),
		valet.NewClient(cfg.ValetURL, cfg.ValetSeries, cfg.SourceTimeout, logger),
		tradingview.NewClient(cfg.ScrapeURL, cfg.SourceTimeout, logger),
	)
	resolver := rates.NewResolver(candidates, cfg.FallbackRate, cfg.ResolvePolicy, cfg.SourceTimeout, logger)

	// Ledger file plus optional Postgres mirror
	writer := ledger.NewCSVStore(cfg.LedgerFile, cfg.WritePolicy, cfg.PortfolioMode, cfg.IncludeSource, logger)

	var mirror service.Mirror
	if cfg.DBConn != "" {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		pg := ledger.NewPostgresMirror(db)
		if err := pg.EnsureTable(); err != nil {
			logger.Fatalf("Failed to prepare mirror table: %v", err)
		}
		mirror = pg
	}

	var notifier service.Notifier
	if cfg.SMTPHost != "" && cfg.AlertEmail != "" {
		notifier = email.NewSender(cfg, logger)
	}

	svc := service.NewService(resolver, writer, mirror, notifier,
		cfg.MunicipalSpread, cfg.Households, cfg.Projects, cfg.PortfolioMode, logger)

	if cfg.RunMode == "serve" {
		serve(cfg, svc, writer, logger)
		return
	}

	// Default: one cycle per invocation, scheduled externally.
	if _, err := svc.Run(context.Background()); err != nil {
		logger.Fatalf("Run failed: %v", err)
	}
}

// serve runs the pipeline on a cron schedule and exposes the ledger over HTTP.
func serve(cfg *config.Config, svc *service.Service, writer *ledger.CSVStore, logger *logrus.Logger) {
	c := cron.New()
	_, err := c.AddFunc(cfg.CronSpec, func() {
		if _, err := svc.Run(context.Background()); err != nil {
			logger.Errorf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Invalid cron spec %q: %v", cfg.CronSpec, err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	h := handler.NewHandler(writer, logger)
	h.Register(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s (schedule %q)", addr, cfg.CronSpec)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
