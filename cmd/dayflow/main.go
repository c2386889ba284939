package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dayflow/internal/config"
	"dayflow/internal/domain"
	"dayflow/internal/errors"
	"dayflow/internal/intent"
	"dayflow/internal/llm"
	"dayflow/internal/logging"
	"dayflow/internal/observability"
	"dayflow/internal/orchestration"
	"dayflow/internal/patterns"
	"dayflow/internal/router"
	"dayflow/internal/scheduling"
	"dayflow/internal/server"
	"dayflow/internal/usercontext"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	flagConfig   string
	flagFixture  string
	flagTimezone string
	flagUserID   string
	flagJSON     bool
)

func main() {
	root := &cobra.Command{
		Use:   "dayflow",
		Short: "Request orchestration and adaptive scheduling for a productivity assistant",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./dayflow.yaml)")
	root.PersistentFlags().StringVar(&flagFixture, "fixture", "", "YAML fixture dataset standing in for live services")
	root.PersistentFlags().StringVar(&flagTimezone, "timezone", "UTC", "IANA timezone")
	root.PersistentFlags().StringVar(&flagUserID, "user", "local", "user id")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit raw JSON")

	root.AddCommand(classifyCmd(), planCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles everything a command needs.
type app struct {
	cfg          *config.Config
	orchestrator *orchestration.Orchestrator
	metrics      *observability.MetricsCollector
	logger       logging.Logger
	loc          *time.Location
	fixtureDate  time.Time
}

func buildApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	loc, err := time.LoadLocation(flagTimezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", flagTimezone)
	}

	var services domain.Services
	var fixtureDate time.Time
	if flagFixture != "" {
		mem, date, err := domain.LoadFixture(flagFixture, loc)
		if err != nil {
			return nil, err
		}
		services = mem.Bundle()
		fixtureDate = date
	} else {
		services = domain.NewMemoryServices().Bundle()
	}

	metrics, err := observability.NewMetricsCollector(observability.MetricsConfig{
		Enabled:        cfg.Observability.MetricsEnabled,
		PrometheusPort: cfg.Observability.PrometheusPort,
	})
	if err != nil {
		return nil, err
	}

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		base := llm.NewOpenAIClient(cfg.LLM.Model, llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		retryCfg := errors.DefaultRetryConfig()
		retryCfg.MaxAttempts = cfg.LLM.MaxRetries
		client = llm.NewRetryClient(base, retryCfg, logger)
	}
	// Without an API key the classifier runs on the keyword fallback alone.

	var store *patterns.Store
	if cfg.Patterns.Enabled {
		var embedder patterns.Embedder
		if cfg.Patterns.EmbedderAPIKey != "" {
			embedder, err = patterns.NewEmbedder(patterns.EmbedderConfig{
				Model:   cfg.Patterns.EmbedderModel,
				APIKey:  cfg.Patterns.EmbedderAPIKey,
				BaseURL: cfg.Patterns.EmbedderURL,
			})
			if err != nil {
				return nil, err
			}
		}
		store, err = patterns.NewStore(patterns.StoreConfig{PersistPath: cfg.Patterns.PersistPath}, embedder, logger)
		if err != nil {
			return nil, err
		}
	}

	builderOpts := []usercontext.BuilderOption{}
	pipelineOpts := []scheduling.Option{scheduling.WithMetrics(metrics)}
	orchOpts := []orchestration.Option{}
	if store != nil {
		builderOpts = append(builderOpts, usercontext.WithPatternSource(store))
		pipelineOpts = append(pipelineOpts, scheduling.WithPatternProvider(store))
		orchOpts = append(orchOpts,
			orchestration.WithRecorder(store),
			orchestration.WithFeedback(store))
	}

	builder := usercontext.NewBuilder(services, cfg.WorkDay, logger, builderOpts...)
	cache := intent.NewCache(intent.CacheConfig{MaxSize: cfg.Cache.MaxSize, TTL: cfg.Cache.TTL})
	classifier := intent.NewClassifier(client, cache, metrics, logger)
	rt := router.New(logger)
	pipeline := scheduling.NewPipeline(services, cfg.WorkDay, logger, pipelineOpts...)

	return &app{
		cfg:          cfg,
		orchestrator: orchestration.New(builder, classifier, rt, pipeline, logger, orchOpts...),
		metrics:      metrics,
		logger:       logger,
		loc:          loc,
		fixtureDate:  fixtureDate,
	}, nil
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message and show the routing decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			decision := a.orchestrator.HandleMessage(cmd.Context(), flagUserID, flagTimezone, args[0])

			if flagJSON || !isTTY() {
				return printJSON(decision)
			}

			fmt.Printf("%s %s\n", bold("category:"), cyan(string(decision.Intent.Category)))
			fmt.Printf("%s %.2f\n", bold("confidence:"), decision.Intent.Confidence)
			fmt.Printf("%s %s\n", bold("handler:"), green(router.String(decision.Handler)))
			if decision.Intent.Reasoning != "" {
				fmt.Printf("%s %s\n", bold("reasoning:"), gray(decision.Intent.Reasoning))
			}
			fmt.Printf("%s %s\n", bold("elapsed:"), decision.Elapsed)
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	var flagDate string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the adaptive scheduling pipeline and print the proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			date := time.Now().In(a.loc)
			if !a.fixtureDate.IsZero() {
				date = a.fixtureDate
			}
			if flagDate != "" {
				date, err = time.ParseInLocation("2006-01-02", flagDate, a.loc)
				if err != nil {
					return fmt.Errorf("invalid date %q", flagDate)
				}
			}

			proposal := a.orchestrator.PlanDay(cmd.Context(), flagUserID, date)

			if flagJSON || !isTTY() {
				return printJSON(proposal)
			}

			fmt.Printf("%s %s (%s)\n", bold("plan for"), proposal.Date, cyan(string(proposal.Strategy)))
			fmt.Printf("%s\n\n", proposal.Summary)
			for _, ch := range proposal.ProposedChanges {
				fmt.Printf("  %s %s %s %s\n",
					green(string(ch.Type)), bold(ch.Data.Title), gray(ch.Reason),
					yellow(fmt.Sprintf("(%.0f%%)", ch.Confidence*100)))
			}
			if len(proposal.NextSteps) > 0 {
				fmt.Printf("\n%s\n", bold("next steps:"))
				for _, step := range proposal.NextSteps {
					fmt.Printf("  - %s\n", step)
				}
			}
			fmt.Printf("\n%s focus=%dmin fragmentation=%.2f gain=%d energy=%d%%\n",
				bold("metrics:"),
				proposal.Metrics.FocusTimeMinutes,
				proposal.Metrics.FragmentationScore,
				proposal.Metrics.EfficiencyGain,
				proposal.Metrics.EnergyAlignment)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagDate, "date", "", "target date (2006-01-02)")
	return cmd
}

func serveCmd() *cobra.Command {
	var flagPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification and planning contracts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			serverCfg := server.DefaultConfig()
			serverCfg.Port = flagPort
			srv := server.New(a.orchestrator, serverCfg, flagTimezone, a.logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer func() { _ = a.metrics.Shutdown(context.Background()) }()

			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&flagPort, "port", 8080, "listen port")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
