package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailproof/config"
	"mailproof/internal/api"
	"mailproof/internal/db"
	"mailproof/internal/dispatch"
	"mailproof/internal/mailbox"
	"mailproof/internal/mailer"
	"mailproof/internal/repository"
	"mailproof/internal/secret"
	"mailproof/internal/settings"
	"mailproof/internal/verify"
	"mailproof/pkg/logger"
	"mailproof/pkg/mq"
	redisclient "mailproof/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting mailproof",
		zap.String("site", cfg.Site.Name),
	)

	// Init Redis (settings store + dispatch markers)
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	codec := secret.NewCodec(cfg.Crypto.MasterKey)
	settingsRepo := settings.NewRepository(rdb, codec)
	markerStore := dispatch.NewRedisMarkerStore(rdb)

	// Postgres history is optional: without a db section the service still
	// runs, it just keeps no history.
	var checkRuns *repository.CheckRunRepository
	var dispatchLog *repository.DispatchLogRepository
	var dispatchLogStore dispatch.LogStore
	var historyStore verify.HistoryStore
	if cfg.DB.Host != "" {
		dbConn, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("DB initialization failed", zap.Error(err))
		}
		defer dbConn.Close()

		checkRuns = repository.NewCheckRunRepository(dbConn)
		dispatchLog = repository.NewDispatchLogRepository(dbConn)
		dispatchLogStore = dispatchLog
		historyStore = checkRuns
	}

	// Event publisher is optional as well
	var dispatchPub dispatch.EventPublisher
	var verifyPub verify.EventPublisher
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("MQ initialization failed", zap.Error(err))
		}
		defer publisher.Close()
		dispatchPub = publisher
		verifyPub = publisher
	}

	// Dispatch path (child role)
	gate := dispatch.NewGate(markerStore, log)
	sender := mailer.New(cfg.SMTP)
	dispatchSvc := dispatch.NewService(gate, sender, settingsRepo, dispatchLogStore, dispatchPub, cfg.Site.Name, log)

	// Verification path (parent role)
	scanner := mailbox.NewScanner(cfg.IMAP, log)
	checkSvc := verify.NewService(scanner, codec, settingsRepo, historyStore, verifyPub, cfg.Site.WindowDays, log)

	// Scheduled dispatch tick. The gate makes anything beyond the first
	// eligible tick of a day a no-op, so an hourly interval is safe.
	go dispatchSvc.RunLoop(context.Background(), time.Hour)
	log.Info("Scheduled dispatch loop started")

	// HTTP admin API
	authHandler := api.NewAuthHandler(cfg.Auth.JWTSecret, cfg.Auth.AdminPasswordHash)
	settingsHandler := api.NewSettingsHandler(settingsRepo, markerStore, log)
	dispatchHandler := api.NewDispatchHandler(dispatchSvc, dispatchLog)
	checkHandler := api.NewCheckHandler(checkSvc, checkRuns)

	router := api.NewRouter(authHandler, settingsHandler, dispatchHandler, checkHandler, cfg.Auth.JWTSecret)

	log.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
