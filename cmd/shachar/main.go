package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shachar-bot/internal/bot"
	"shachar-bot/internal/config"
	"shachar-bot/pkg/icount"
	"shachar-bot/pkg/logger"
	"shachar-bot/pkg/salesforce"
	"shachar-bot/pkg/whapi"
)

// ENTRY POINT

func main() {
	_ = godotenv.Load()

	zapLogger, err := logger.New()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	transport := whapi.NewClient(
		cfg.WhapiBaseURL,
		cfg.WhapiToken,
		cfg.HTTPRequestTimeout,
		cfg.HTTPMaxRetries,
		zapLogger,
	)

	crm := salesforce.NewClient(salesforce.Credentials{
		Username:       cfg.SalesforceUsername,
		Password:       cfg.SalesforcePassword,
		ConsumerKey:    cfg.SalesforceConsumerKey,
		ConsumerSecret: cfg.SalesforceConsumerSecret,
		SecurityToken:  cfg.SalesforceSecurityToken,
		LoginURL:       cfg.SalesforceLoginURL,
	}, cfg.HTTPRequestTimeout, cfg.HTTPMaxRetries, zapLogger)

	// No valid collaborator session, no process.
	if err := crm.Login(ctx); err != nil {
		zapLogger.Fatal("Failed to authenticate with Salesforce", zap.Error(err))
	}

	billing := icount.NewClient(icount.Credentials{
		CID:      cfg.ICountCID,
		Username: cfg.ICountUsername,
		Password: cfg.ICountPassword,
		BaseURL:  cfg.ICountBaseURL,
	}, cfg.HTTPRequestTimeout, cfg.HTTPMaxRetries, zapLogger)

	if err := billing.Login(ctx); err != nil {
		zapLogger.Fatal("Failed to authenticate with iCount", zap.Error(err))
	}

	orderBot := bot.New(cfg, transport, crm, billing, bot.NewSessionStore(), zapLogger)

	if err := orderBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}
