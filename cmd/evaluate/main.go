package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/evaluation"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/ollama"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

func main() {
	var (
		model      string
		goldenPath string
	)
	flag.StringVar(&model, "model", "qwen2.5:1.5b", "model to evaluate")
	flag.StringVar(&goldenPath, "golden", "config/golden_transcripts.json", "golden transcript set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLoggerWithLevel("lead-evaluation", cfg.Log.Env, cfg.Log.Level)

	if err := services.ValidateModel(model); err != nil {
		log.Fatal().Err(err).Str("model", model).Msg("model is not on the allow-list")
	}

	if _, err := os.Stat(goldenPath); err != nil {
		if _, alt := os.Stat("backend/" + goldenPath); alt == nil {
			goldenPath = "backend/" + goldenPath
		}
	}

	cases, err := evaluation.LoadGoldenTranscripts(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden transcripts")
	}
	if err := evaluation.ValidateGoldenTranscripts(cases); err != nil {
		log.Fatal().Err(err).Msg("invalid golden transcripts")
	}

	runner := evaluation.NewRunner(
		ollama.NewClient(&cfg.Ollama),
		evaluation.NewGuardrails(evaluation.GuardrailConfig{MinLeadScore: cfg.Leads.MinLeadScore}),
		cfg.Ollama.GenerateTimeout,
	)
	summary, results, err := runner.Run(context.Background(), model, cases)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	for _, result := range results {
		if result.Err != nil {
			log.Warn().Err(result.Err).Str("case", result.CaseID).Msg("case failed")
		}
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
