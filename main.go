package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	_ "github.com/lib/pq"

	"github.com/furtivegod/becomeyou/api"
	"github.com/furtivegod/becomeyou/completion"
	"github.com/furtivegod/becomeyou/config"
	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/mailer"
	"github.com/furtivegod/becomeyou/metrics"
	"github.com/furtivegod/becomeyou/plan"
	"github.com/furtivegod/becomeyou/render"
	rh "github.com/furtivegod/becomeyou/route-handlers"
	"github.com/furtivegod/becomeyou/sequencer"
	"github.com/furtivegod/becomeyou/storage"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webhooks"
)

const (
	dbPingTimeout     = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	dbMaxOpenConns    = 25
	dbMaxIdleConns    = 25
	dbConnMaxLifetime = 5 * time.Minute
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	db, err := setupDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	defer db.Close()

	metrics.Init()

	userRepo := datastore.NewUserRepository(db)
	orderRepo := datastore.NewOrderRepository(db)
	sessionRepo := datastore.NewSessionRepository(db)
	messageRepo := datastore.NewMessageRepository(db)
	planRepo := datastore.NewPlanRepository(db)
	pdfJobRepo := datastore.NewPdfJobRepository(db)
	emailQueueRepo := datastore.NewEmailQueueRepository(db)

	signer := token.NewSigner(cfg.TokenSecret)
	completer := completion.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	synthesizer := plan.NewSynthesizer(completer, logger)

	storer := storage.NewLocalFileStorer(cfg.BlobDir)
	renderer := render.New(cfg.PDFRenderURL, cfg.AppBaseURL, storer, pdfJobRepo, signer, logger)

	var provider mailer.Messenger
	if cfg.UseSMTP() {
		logger.Warn("SENDGRID_API_KEY not set, delivering via local SMTP relay",
			zap.String("smtp_host", cfg.SMTPHost),
		)
		provider = mailer.NewSMTPMessenger(cfg.SMTPHost, cfg.SMTPPort, cfg.SendGridFromEmail)
	} else {
		provider = mailer.NewSendGridMessenger(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	}
	messenger := mailer.WithRetry(provider)

	mailLimiter := rate.NewLimiter(rate.Limit(cfg.MailRateLimit), cfg.MailRateLimit)
	seq := sequencer.New(emailQueueRepo, planRepo, messenger, mailLimiter, logger)

	purchaseHandler := webhooks.NewPurchaseHandler(
		cfg.WebhookSecret,
		cfg.AppBaseURL,
		userRepo,
		orderRepo,
		sessionRepo,
		signer,
		messenger,
		logger,
	)

	sessionHandler := rh.NewSessionHandler(sessionRepo, userRepo)
	chatHandler := rh.NewChatHandler(
		sessionRepo,
		messageRepo,
		userRepo,
		planRepo,
		completer,
		synthesizer,
		renderer,
		messenger,
		seq,
		signer,
		logger,
	)
	reportHandler := rh.NewReportHandler(sessionRepo, pdfJobRepo, signer, renderer)
	fileHandler := rh.NewFileHandler(storer, signer)

	router := api.SetupRoutes(
		logger,
		purchaseHandler,
		sessionHandler,
		chatHandler,
		reportHandler,
		fileHandler,
		seq,
	)

	startServer(cfg.Port, router, logger)
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func startServer(port string, router http.Handler, logger *zap.Logger) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownSignal
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
