// Package main is the entry point for the riskfolio portfolio risk
// analytics service. It wires the databases, market data sources, and
// analytics services, then serves the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mkarlis/riskfolio/internal/clients/marketdata"
	"github.com/mkarlis/riskfolio/internal/config"
	"github.com/mkarlis/riskfolio/internal/database"
	"github.com/mkarlis/riskfolio/internal/modules/calculations"
	"github.com/mkarlis/riskfolio/internal/modules/ledger"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	"github.com/mkarlis/riskfolio/internal/modules/simulation"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
	"github.com/mkarlis/riskfolio/internal/reliability"
	"github.com/mkarlis/riskfolio/internal/scheduler"
	"github.com/mkarlis/riskfolio/internal/server"
	"github.com/mkarlis/riskfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting riskfolio")

	// Four databases with profiles matched to their write patterns. The
	// ledger is the audit trail and gets full synchronous durability; the
	// cache holds recomputable data and trades durability for speed.
	databases := map[string]*database.DB{}
	for _, spec := range []struct {
		name    string
		profile database.Profile
	}{
		{"history", database.ProfileStandard},
		{"portfolio", database.ProfileStandard},
		{"ledger", database.ProfileLedger},
		{"cache", database.ProfileCache},
	} {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.name+".db"),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			log.Fatal().Err(err).Str("database", spec.name).Msg("Failed to open database")
		}
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", spec.name).Msg("Failed to migrate database")
		}
		databases[spec.name] = db
	}
	defer func() {
		for name, db := range databases {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Str("database", name).Msg("Failed to close database")
			}
		}
	}()

	// Market data: historical index closes from the chart API, persisted
	// into the history database.
	indexClient := marketdata.NewClient(cfg.MarketDataURL, log)
	priceRepo := universe.NewPriceRepository(databases["history"].Conn(), log)
	marketSource := universe.NewMarketDataSource(priceRepo, indexClient, log)

	calcCache := calculations.NewCache(databases["cache"].Conn(), calculations.DefaultTTL, log)

	ledgerRepo := ledger.NewRepository(databases["ledger"].Conn(), log)
	portfolioRepo := portfolio.NewRepository(databases["portfolio"].Conn(), log)

	// The account row carries the configured analytics settings; cash
	// balance stays whatever the store has.
	account, err := portfolioRepo.Account()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load account")
	}
	account.RiskFreeRate = cfg.RiskFreeRate
	account.MarketSymbol = cfg.MarketSymbol
	if err := portfolioRepo.SaveAccount(account); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply account settings")
	}

	portfolioService := portfolio.NewService(portfolioRepo, priceRepo, marketSource, calcCache, ledgerRepo, log)
	if err := portfolioService.Hydrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to hydrate portfolio")
	}

	ledgerService := ledger.NewService(ledgerRepo, portfolioService, log)
	simulationService := simulation.NewService(portfolioService, log)

	// Cloud backups are optional; enabled by configuring a bucket.
	var backupService *reliability.S3BackupService
	if cfg.BackupEnabled() {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			Bucket:    cfg.Backup.Bucket,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		backups := reliability.NewBackupService(databases, log)
		backupService = reliability.NewS3BackupService(s3Client, backups, cfg.DataDir, log)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
	}

	// Live quote stream is optional; enabled by configuring a URL.
	var quoteStream *marketdata.QuoteStream
	if cfg.QuoteStreamURL != "" {
		symbols := cfg.QuoteStreamSymbols
		if len(symbols) == 0 {
			if p, err := portfolioService.Portfolio(); err == nil {
				symbols = p.Symbols()
			}
		}
		quoteStream = marketdata.NewQuoteStream(cfg.QuoteStreamURL, symbols, log)
		if err := quoteStream.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start quote stream, continuing without it")
			quoteStream = nil
		}
	}

	// Background maintenance.
	sched := scheduler.New(log)
	registerJob := func(spec string, job scheduler.Job) {
		if err := sched.Register(spec, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}
	registerJob("0 22 * * 1-5", scheduler.NewMarketSyncJob(marketSource, cfg.MarketSymbol, log))
	registerJob("@hourly", scheduler.NewCachePurgeJob(calcCache))
	registerJob("30 3 * * *", scheduler.NewWALCheckpointJob(databases, log))
	if backupService != nil {
		registerJob("0 4 * * *", scheduler.NewCloudBackupJob(backupService, cfg.Backup.RetentionDays))
	}
	sched.Start()

	var streamStatus server.StreamStatus
	if quoteStream != nil {
		streamStatus = quoteStream
	}

	srv := server.New(server.Config{
		Log:               log,
		Config:            cfg,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		Databases:         databases,
		PortfolioService:  portfolioService,
		LedgerService:     ledgerService,
		SimulationService: simulationService,
		Backups:           backupService,
		StreamStatus:      streamStatus,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	if quoteStream != nil {
		if err := quoteStream.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping quote stream")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
