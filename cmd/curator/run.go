package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/FranksOps/curator/internal/config"
	"github.com/FranksOps/curator/internal/fingerprint"
	"github.com/FranksOps/curator/internal/keywords"
	"github.com/FranksOps/curator/internal/logging"
	"github.com/FranksOps/curator/internal/metrics"
	"github.com/FranksOps/curator/internal/pipeline"
	"github.com/FranksOps/curator/internal/report"
	"github.com/FranksOps/curator/internal/youtube"
	"github.com/FranksOps/curator/pkg/httpclient"
	"github.com/FranksOps/curator/pkg/ratelimit"
	"github.com/spf13/cobra"
)

type runOptions struct {
	*rootOptions
	summary string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Search a topic, resolve video statistics and export CSV and JSON reports",
		Long: "Search a topic, resolve video statistics and export CSV and JSON reports.\n" +
			"Without a topic argument an interactive menu of configured topics is shown.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurator(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.summary, "summary", "text", "end-of-run summary: text, json or none")
	return cmd
}

func runCurator(ctx context.Context, in io.Reader, out, errOut io.Writer, opts *runOptions, args []string) error {
	switch opts.summary {
	case "text", "json", "none":
	default:
		return fmt.Errorf("unknown --summary %q", opts.summary)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger := logging.New(errOut, cfg.LogLevel, cfg.LogFormat)
	logger.Info("configuration loaded", "output_dir", cfg.OutputDir, "max_results", cfg.MaxResults)
	defer logger.Info("curator terminated")

	resolver := keywords.NewResolver(cfg.TopicCategories)

	var topic string
	if len(args) == 1 {
		topic = args[0]
	} else {
		topic, err = selectTopic(ctx, in, out, resolver.Topics())
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			logger.Info("interrupted by user, exiting")
			fmt.Fprintln(out, "\nExiting program...")
			return nil
		}
		if err != nil {
			return err
		}
	}
	logger.Info("topic selected", "topic", topic)
	fmt.Fprintf(out, "Fetching content for topic: %s\n", topic)

	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort, logger)
		defer srv.Stop(context.Background())
	}

	p, err := buildPipeline(cfg, resolver, logger)
	if err != nil {
		return err
	}

	outcome, err := p.Run(ctx, topic)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted by user, exiting")
		fmt.Fprintln(out, "\nExiting program...")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %d videos\n", len(outcome.Records))
	if outcome.Export.CSVErr == nil {
		fmt.Fprintf(out, "  CSV:  %s\n", outcome.Export.CSVPath)
	}
	if outcome.Export.JSONErr == nil {
		fmt.Fprintf(out, "  JSON: %s\n", outcome.Export.JSONPath)
	}

	summary := report.GenerateSummary(topic, outcome.Records)
	switch opts.summary {
	case "text":
		return report.WriteText(out, summary)
	case "json":
		return report.WriteJSON(out, summary)
	}
	return nil
}

// buildPipeline wires the API client and exporter from configuration.
func buildPipeline(cfg *config.Config, resolver *keywords.Resolver, logger *slog.Logger) (*pipeline.Pipeline, error) {
	profile, err := fingerprint.ParseProfile(cfg.TLSProfile)
	if err != nil {
		return nil, err
	}

	var proxyURL *url.URL
	if cfg.ProxyURL != "" {
		proxyURL, err = url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy_url: %w", err)
		}
	}

	transport, err := fingerprint.Transport(profile, proxyURL)
	if err != nil {
		return nil, err
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.HTTPTimeout,
		MaxRedirects: 3,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}

	client, err := youtube.New(youtube.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		MaxResults: cfg.MaxResults,
		Keywords:   resolver,
		HTTPClient: hc,
		Pacer:      ratelimit.NewDelay(cfg.RequestDelay, cfg.RequestJitter),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	exporter, err := report.NewExporter(cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Searcher: client,
		Resolver: client,
		Exporter: exporter,
		Logger:   logger,
	}, nil
}
