package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/bot"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/images"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/observability"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/queue"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/scrape"
)

// BotCmd returns the long-running Telegram bot command.
func BotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram road-tax lookup bot",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	if err := cfg.RequireBotCredentials(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	downloads := queue.NewDownloads(2, 64, log.Logger)
	defer downloads.Close()

	session := scrape.NewSession(cfg.Portal, scrape.NewTwoCaptcha(cfg.CaptchaKey), cfg.CacheDir, log.Logger)
	cache := images.NewCache(db, images.NewSerpSearcher(cfg.SerpAPIKey), downloads, cfg.CacheDir, log.Logger)

	tg, err := bot.NewTelegram(cfg.TelegramToken, log.Logger)
	if err != nil {
		return err
	}

	o := bot.NewOrchestrator(ctx, db, tg, session, cache, log.Logger)
	log.Info().Msg("bot started")

	err = tg.Run(ctx, o)
	o.Wait()
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("bot stopped")
		return nil
	}
	return err
}
