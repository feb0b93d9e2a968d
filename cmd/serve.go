package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/authoring"
	"github.com/abhisek/coursegen/internal/httpapi"
	"github.com/abhisek/coursegen/internal/llm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the course generation endpoint",
	Long: "Hosts POST /api/generate backed by the configured LLM provider.\n" +
		"Without an API key the server still starts and answers 401.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr, _ := cmd.Flags().GetString("addr")

		logger, err := newLogger(cmd, "")
		if err != nil {
			return err
		}
		defer logger.Sync()

		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		cfg := llm.ConfigFromEnv()
		if p, _ := cmd.Flags().GetString("provider"); p != "" {
			cfg.Provider = p
		}

		var gen authoring.Generator
		provider, err := llm.NewProvider(ctx, cfg, backend, logger)
		var missing *llm.MissingKeyError
		switch {
		case errors.As(err, &missing):
			logger.Warn("LLM provider not configured; requests will be rejected",
				zap.String("provider", missing.Provider),
				zap.String("env", missing.EnvVar))
			gen = authoring.Unavailable(err)
		case err != nil:
			return err
		default:
			acfg := authoring.DefaultConfig()
			acfg.Timeout = cfg.Timeout
			acfg.MaxTokens = cfg.MaxTokens
			gen = authoring.NewService(provider, cfg.Provider, acfg, logger)
			logger.Info("LLM provider ready",
				zap.String("provider", cfg.Provider),
				zap.String("model", provider.ModelID()))
		}

		return httpapi.NewServer(addr, gen, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", httpapi.DefaultAddr, "Listen address")
	serveCmd.Flags().String("provider", "", "LLM provider: openai, anthropic, gemini, openrouter or mock (overrides COURSEGEN_LLM_PROVIDER)")
}
