package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/procampo/whatsapp-bridge/internal/api"
	"github.com/procampo/whatsapp-bridge/internal/biz"
	"github.com/procampo/whatsapp-bridge/internal/conf"
	"github.com/procampo/whatsapp-bridge/internal/data"
	"github.com/procampo/whatsapp-bridge/internal/server"
	"github.com/procampo/whatsapp-bridge/internal/service"
	"github.com/procampo/whatsapp-bridge/pkg/logger"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := conf.LoadFromEnv()
	l := logger.New(cfg.Env)
	if envErr != nil {
		l.Debug().Msg("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.Messages != nil && cfg.Messages.LoadedFrom != "" {
		l.Info().Str("path", cfg.Messages.LoadedFrom).Msg("messages loaded")
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create repositories")
	}
	defer repos.Close()
	if cfg.AuditEnabled() {
		l.Info().Str("path", cfg.Audit.DBPath).Msg("audit log enabled")
	}
	if cfg.ClassifierEnabled() {
		l.Info().Msg("intent classifier enabled")
	}

	// Initialize usecase layer
	handoffCfg := cfg.Handoff.ToHandoffConfig()
	ucs := biz.NewUsecases(handoffCfg, repos.Intent, cfg.ToCatalog(), cfg.Location)

	// Initialize service layer
	convSvc := service.NewConversationService(
		ucs.Handoff,
		ucs.Intent,
		ucs.Formatter,
		repos.Messenger,
		repos.Audit,
		service.Options{
			AgentPhone:   cfg.Agent.Phone,
			TemplateName: cfg.Agent.TemplateName,
			TemplateLang: cfg.Agent.TemplateLang,
			KhumicLink:   cfg.Documents.KhumicLink,
			SeaweedLink:  cfg.Documents.SeaweedLink,
		},
		l,
	)
	sweeper := service.NewIdleSweeper(ucs.Handoff, convSvc, cfg.Handoff.SweepInterval(), l)

	// Local API for the handoff MCP tool
	apiServer := api.NewServer(convSvc, l)
	go func() {
		if err := apiServer.Start(cfg.Server.APIAddr); err != nil {
			l.Error().Err(err).Msg("api server error")
		}
	}()

	// Webhook server
	webhook := server.NewWhatsAppServer(convSvc, cfg.Server.VerifyToken, cfg.Server.DedupTTL, l)
	go func() {
		if err := webhook.Start(":" + cfg.Server.Port); err != nil {
			l.Fatal().Err(err).Msg("webhook server error")
		}
	}()

	sweeper.Start()
	l.Info().
		Int("slots", handoffCfg.MaxSlots).
		Dur("reminder_after", handoffCfg.ReminderAfter).
		Dur("auto_close_after", handoffCfg.AutoCloseAfter).
		Msg("Pro Campo WhatsApp bot started")

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sweeper.Stop()
	if err := webhook.Stop(ctx); err != nil {
		l.Warn().Err(err).Msg("webhook shutdown")
	}
	if err := apiServer.Stop(ctx); err != nil {
		l.Warn().Err(err).Msg("api shutdown")
	}
	l.Info().Msg("shutdown complete")
}
