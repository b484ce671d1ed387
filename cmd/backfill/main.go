package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/database"
	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/ollama"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

var (
	workers      int
	model        string
	transcriptID string
)

var rootCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate retention leads for transcripts that never got one",
	Long: `Backfill runs lead extraction for new transcripts that have no lead row.

Failed transcripts still have no lead afterwards, so running the command
again retries them.

Examples:
  backfill                          # all transcripts without a lead
  backfill --workers 4              # more concurrent model calls
  backfill --transcript <id>        # a single transcript`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent workers (default LEADS_BACKFILL_WORKERS)")
	rootCmd.Flags().StringVar(&model, "model", "", "model to use (default LEADS_BACKFILL_MODEL)")
	rootCmd.Flags().StringVar(&transcriptID, "transcript", "", "single transcript ID to backfill")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	observability.InitLoggerWithLevel("lead-backfill", cfg.Log.Env, cfg.Log.Level)

	if workers <= 0 {
		workers = cfg.Leads.BackfillWorker
	}
	if model == "" {
		model = cfg.Leads.BackfillModel
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pgClient.Close()

	transcriptAdapter := database.NewTranscriptAdapter(pgClient)
	generationService := services.NewGenerationService(
		transcriptAdapter,
		database.NewArtifactAdapter(pgClient),
		database.NewLeadAdapter(pgClient),
		ollama.NewClient(&cfg.Ollama),
		services.NewAuditRecorder(database.NewAuditAdapter(pgClient)),
		nil,
		services.GenerationConfig{
			GenerateTimeout: cfg.Ollama.GenerateTimeout,
			WarmupTimeout:   cfg.Ollama.WarmupTimeout,
			ProtectWorked:   cfg.Leads.ProtectWorked,
			MinLeadScore:    cfg.Leads.MinLeadScore,
		},
	)

	svc := services.NewLeadBackfillService(transcriptAdapter, generationService, model, workers)
	ctx := cmd.Context()
	start := time.Now()

	if transcriptID != "" {
		log.Info().Str("transcript_id", transcriptID).Str("model", model).Msg("backfilling single transcript")
		result, err := svc.BackfillSingle(ctx, transcriptID)
		if err != nil {
			return err
		}
		log.Info().
			Str("transcript_id", transcriptID).
			Int("lead_count", result.LeadCount).
			Str("lead_id", result.LeadID).
			Str("warning", result.Warning).
			Msg("backfill complete")
		return nil
	}

	log.Info().Int("workers", workers).Str("model", model).Msg("starting lead backfill")
	summary, err := svc.BackfillAll(ctx)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("total_processed", summary.TotalProcessed).
		Int("leads_created", summary.LeadsCreated).
		Int("no_lead", summary.NoLeadCount).
		Int("failed", summary.FailureCount).
		Msg("backfill complete")
	return nil
}
