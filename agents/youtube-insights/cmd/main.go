package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	youtubeinsights "insight-stack/agents/youtube-insights"
	"insight-stack/agents/youtube-insights/api"
	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/shared/config"
	"insight-stack/shared/logging"
	"insight-stack/shared/monitoring"
	"insight-stack/shared/report"
	"insight-stack/shared/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "youtube-insights",
		Short:        "Mine YouTube comments for sentiment, themes and purchase intent",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("youtube-insights version {{.Version}}\n")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newAuthCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pipeline, err := newPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			srv := api.NewServer(cfg.Server, pipeline, monitoring.NewMonitor(logger), logger.Named("api"))
			return srv.Run(cmd.Context())
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		req      youtubeinsights.Request
		parallel bool
		indent   bool
	)

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Analyze one search query and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pipeline, err := newPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			req.Query = args[0]
			if cmd.Flags().Changed("parallel") {
				req.ParallelCollection = &parallel
			}

			resp, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				enc := json.NewEncoder(cmd.ErrOrStderr())
				enc.SetIndent("", "  ")
				_ = enc.Encode(report.ErrorResponse(err))
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(resp)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&req.MaxVideos, "max-videos", "n", 0, "Number of videos to analyze (default from limits)")
	f.IntVarP(&req.MaxCommentsPerVideo, "max-comments", "c", 0, "Comments to collect per video (default 50)")
	f.StringVarP(&req.Language, "language", "l", youtubeinsights.DefaultLanguage, "Search language")
	f.StringVarP(&req.Region, "region", "r", youtubeinsights.DefaultRegion, "Search region")
	f.StringVarP(&req.AIAnalysisPrompt, "prompt", "p", youtubeinsights.DefaultPrompt, "Analysis instructions for the model")
	f.IntVar(&req.MaxQuoteLength, "max-quote-length", 0, "Maximum quote length in characters (default 200)")
	f.StringVar(&req.StartDate, "start-date", "", "Only keep comments published on or after YYYY-MM-DD")
	f.StringVar(&req.EndDate, "end-date", "", "Only keep comments published on or before YYYY-MM-DD")
	f.BoolVar(&parallel, "parallel", false, "Collect comments for several videos at once")
	f.BoolVar(&indent, "pretty", true, "Indent the JSON output")

	return cmd
}

func newWatchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the configured watch queries on their schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pipeline, err := newPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			agent := youtubeinsights.NewWatchAgent(cfg, pipeline, logger.Named("watch"))
			s := scheduler.New(cfg, agent, monitoring.NewMonitor(logger), logger.Named("scheduler"))

			if once {
				logger.Info("running once")
				if err := agent.Initialize(); err != nil {
					return fmt.Errorf("failed to initialize agent: %w", err)
				}
				return s.RunOnce(cmd.Context())
			}

			logger.Info("starting scheduler")
			if err := s.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run every watch query once and exit")
	return cmd
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize the YouTube Data API backend with the device flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.YouTube.ClientID == "" || cfg.YouTube.ClientSecret == "" {
				return errors.New("missing credentials: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
			}
			oauthConfig := youtube.OAuthConfig(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret)
			return youtube.Authorize(cmd.Context(), oauthConfig, cfg.YouTube.TokenFile, cmd.OutOrStdout())
		},
	}
}
