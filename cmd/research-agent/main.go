package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/chains"
	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/tools"
)

var (
	topic      string
	depth      string
	maxSources int
)

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	rootCmd := &cobra.Command{
		Use:   "research-agent",
		Short: "A terminal-based research pipeline",
		Long:  `research-agent plans search queries for a topic, retrieves and scrapes web sources, summarizes them, and writes a final markdown report.`,
		Run: func(cmd *cobra.Command, args []string) {
			if topic == "" {
				slog.Error("--topic is required")
				os.Exit(1)
			}

			cfg := config.Load()
			logger := slog.Default()

			// Cancel the run cleanly on Ctrl-C; the pipeline checks the
			// context between external calls.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			llm, err := clients.GoogleAI(ctx, cfg.GoogleAPIKey, clients.ModelType(cfg.Model))
			if err != nil {
				slog.Error("Failed to init LLM", "error", err)
				os.Exit(1)
			}

			nodes := agent.NewNodes(
				chains.NewPlanningChain(llm),
				tools.NewTavilySearch(cfg.TavilyAPIKey, logger),
				tools.NewWebScraper(cfg.ScrapeTimeout()),
				chains.NewSummaryChain(llm),
				chains.NewReportChain(llm),
				cfg.Tuning(),
				logger,
			)
			pipeline := agent.NewPipeline(nodes, logger)

			slog.Info("Starting research", "topic", topic, "depth", depth, "max_sources", maxSources)

			state := agent.NewState(topic, depth, maxSources)
			pipeline.Run(ctx, state)

			if state.CurrentStep != agent.StepCompleted {
				slog.Error("Research failed", "error", state.Error)
				os.Exit(1)
			}

			filename := fmt.Sprintf("report_%d.md", time.Now().Unix())
			if err := os.WriteFile(filename, []byte(state.FinalReport), 0644); err != nil {
				slog.Error("Failed to save report", "error", err)
				os.Exit(1)
			}

			slog.Info("Report saved", "file", filename, "words", state.ReportMetadata.WordCount, "sources", state.ReportMetadata.NumSources)
		},
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "The research topic")
	rootCmd.Flags().StringVarP(&depth, "depth", "d", agent.DepthStandard, "Research depth: quick, standard or detailed")
	rootCmd.Flags().IntVarP(&maxSources, "max-sources", "m", 5, "Maximum number of sources to analyze")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
