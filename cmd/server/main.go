package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pain-diagnosis/internal/config"
	"pain-diagnosis/internal/core"
	httpserver "pain-diagnosis/internal/http"
	"pain-diagnosis/internal/llm"
	"pain-diagnosis/internal/observability"
	"pain-diagnosis/pkg"
)

const serviceVersion = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pain-diagnosis",
		Short: "Pain symptom diagnosis relay",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(promptCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the diagnosis HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// promptCmd prints the prompt a request would produce, without calling
// the completion API.
func promptCmd() *cobra.Command {
	var req pkg.DiagnosisRequest
	var profileName string

	cmd := &cobra.Command{
		Use:   "prompt <location>",
		Short: "Render the diagnosis prompt for a location",
		Long: "Render the diagnosis prompt for a location.\n\nKnown locations: " +
			strings.Join(sortedCodes(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := core.Profile(profileName)
			if err != nil {
				return err
			}
			req.Location = args[0]
			prompt, err := profile.RenderPrompt(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(prompt))
			fmt.Fprintf(cmd.OutOrStdout(), "\n(max_tokens=%d)\n", profile.MaxTokens)
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "detailed", "Prompt profile (detailed or concise)")
	cmd.Flags().StringVar(&req.PainType, "pain-type", "", "Pain type")
	cmd.Flags().StringVar(&req.Duration, "duration", "", "How long the pain has lasted")
	cmd.Flags().StringVar(&req.Additional, "additional", "", "Additional symptoms")
	cmd.Flags().StringVar(&req.ExtraDetails, "extra-details", "", "Extra details")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	if !cfg.HasAPIKey() {
		logger.Warn().Msg("OPENROUTER_API_KEY is not set; /diagnose will fail until it is configured")
	}

	ctx := context.Background()
	shutdownTelemetry, err := observability.Setup(ctx, "pain-diagnosis", serviceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up telemetry")
	}

	profile, err := core.Profile(cfg.PromptProfile)
	if err != nil {
		return err
	}
	llmClient := llm.NewOpenAIClient(llm.Options{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	diagnoser := core.NewDiagnosisService(llmClient, profile, cfg.HasAPIKey())

	srv := httpserver.NewServer(httpserver.Options{
		Diagnoser:      diagnoser,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		FeedbackAPIKey: cfg.FeedbackAPIKey,
		Profile:        profile.Name,
		Model:          llmClient.Model(),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("profile", profile.Name).Str("model", cfg.Model).Msg("starting server")
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func sortedCodes() []string {
	codes := core.BodyPartCodes()
	sort.Strings(codes)
	return codes
}
