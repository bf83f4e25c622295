package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/diff"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/observability"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/sweep"
)

// SweepCmd returns the one-shot listings ingestion command, meant to be run
// from cron.
func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one listings ingestion pass over all search terms",
		RunE:  runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := bootstrap()
	if err != nil {
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

	s := sweep.New(
		db,
		sweep.NewHTTPClient(log.Logger),
		diff.New(sweep.DefaultIgnorableFields...),
		cfg.SweepMaxPages,
		log.Logger,
	)
	return s.Run(ctx)
}
