package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/internal/backend"
	"github.com/prasetyadi/faktur-review/internal/common"
)

var (
	flagAPIURL  string
	flagVerbose bool

	cfg    *common.Config
	logger *slog.Logger
	client *backend.Client
)

var rootCmd = &cobra.Command{
	Use:   "fakturctl",
	Short: "Review and submit OCR-extracted tax documents",
	Long: `fakturctl drives the tax-document review workflow against the OCR
backend: upload a batch of faktur/bukti-setor files, review the extracted
fields, save them, and pull laporan exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = common.LoadConfig()
		if flagAPIURL != "" {
			cfg.Backend.BaseURL = flagAPIURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelInfo
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		client = backend.NewClient(cfg.Backend, logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (default $FAKTUR_API_URL or "+common.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose structured logging")
}
