package main

import (
	"encoding/json"
	"fmt"
	"io"

	"StockPulse/internal/di"
	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "stockpulse",
		Short:         "Stock OHLCV ingest and analysis pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(newServeCmd(opts), newIngestCmd(opts), newAnalyzeCmd(opts))
	return root
}

// bootstrap loads config and builds the root logger.
func (o *rootOptions) bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEnv(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	log, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run Kafka triggers and the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			log.Info("starting", logger.String("env", cfg.Environment), logger.String("storage", cfg.Storage.Backend))

			app, cleanup, err := di.InitializeApp(cfg, log)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			return app.Run(cmd.Context())
		},
	}
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var ev models.ObjectCreated
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Validate one raw batch into processed and rejected partitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			h, cleanup, err := di.InitializeIngest(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			sum, err := h.Handle(cmd.Context(), ev)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&ev.Bucket, "bucket", "", "bucket holding the batch")
	cmd.Flags().StringVar(&ev.Key, "key", "", "object key of the batch")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var detail models.IngestCompleted
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one processed partition and store the combined record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			h, cleanup, err := di.InitializeAnalyze(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			detail.RawCount = detail.ValidCount + detail.InvalidCount
			sum, err := h.Handle(cmd.Context(), detail)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&detail.Bucket.Name, "bucket", "", "bucket holding the partition")
	cmd.Flags().StringVar(&detail.Key, "key", "", "object key of the processed partition")
	cmd.Flags().IntVar(&detail.ValidCount, "valid", 0, "valid record count reported by ingest")
	cmd.Flags().IntVar(&detail.InvalidCount, "invalid", 0, "rejected record count reported by ingest")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
