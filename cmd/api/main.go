package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/squadcards/cardforge-backend/internal/config"
	"github.com/squadcards/cardforge-backend/internal/logging"
	"github.com/squadcards/cardforge-backend/internal/media"
	miniorepo "github.com/squadcards/cardforge-backend/internal/repository/minio"
	"github.com/squadcards/cardforge-backend/internal/repository/postgres"
	"github.com/squadcards/cardforge-backend/internal/sanitize"
	"github.com/squadcards/cardforge-backend/internal/service"
	transport "github.com/squadcards/cardforge-backend/internal/transport/http"
	"github.com/squadcards/cardforge-backend/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}
	storage := miniorepo.NewStorage(minioClient)

	sessionTTL, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil {
		log.Printf("invalid SESSION_TTL %q, using 24h", cfg.SessionTTL)
		sessionTTL = 24 * time.Hour
	}

	cardRepo := postgres.NewCardRepo(db)
	importRepo := postgres.NewCardImportRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)
	userRepo := postgres.NewUserRepo(db)

	sanitizer := sanitize.New(cfg.NameBlocklist)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, sessionTTL)
	processor := media.NewResizeProcessor(cfg.PhotoMaxDimension)

	authService := service.NewAuthService(userRepo, jwtManager, cfg.GoogleAudience)
	historyService := service.NewHistoryService(historyRepo, cfg.HistoryLimit)
	cardService := service.NewCardService(cardRepo, historyService, storage, processor, sanitizer, service.CardServiceConfig{
		PhotoBucket:       cfg.MinIOBucketPhotos,
		PhotoMaxDimension: cfg.PhotoMaxDimension,
	})
	importService := service.NewCardImportService(importRepo, cardService, storage, sanitizer, service.CardImportServiceConfig{
		Bucket:       cfg.MinIOBucketImports,
		MaxRows:      cfg.ImportMaxRows,
		MaxFileBytes: cfg.ImportMaxFileBytes,
	})
	exportService := service.NewExportService(storage, service.ExportServiceConfig{
		PhotoBucket:  cfg.MinIOBucketPhotos,
		ExportBucket: cfg.MinIOBucketExports,
	})

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterAuth(e, authService)
	transport.RegisterCards(e, authService, cardService, exportService, cfg.PhotoMaxBytes)
	transport.RegisterHistory(e, authService, historyService)
	transport.RegisterCardImports(e, authService, importService, cardService, cfg.ImportMaxFileBytes)
	transport.RegisterSwagger(e)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
