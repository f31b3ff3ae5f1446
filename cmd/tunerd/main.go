// Command tunerd tunes ranking query parameters against a remote
// ranking-evaluation service and writes the winning parameter set as a
// JSON artifact ready to become the new template defaults.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchlab/querytuner/internal/evaluate"
	"github.com/searchlab/querytuner/internal/rankeval"
	"github.com/searchlab/querytuner/internal/search"
	"github.com/searchlab/querytuner/internal/tuner"
	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/logger"
	"github.com/searchlab/querytuner/pkg/utils"
)

func main() {
	var (
		configPath    = flag.String("config", "config.json", "path to the tuning config file")
		settingsPath  = flag.String("settings", "settings.yaml", "path to the service settings file")
		metricPath    = flag.String("metric", "metric.json", "path to the metric definition file")
		templatesPath = flag.String("templates", "templates.json", "path to the query template file")
		topicsPath    = flag.String("topics", "topics.json", "path to the judged query file")
		qrelsPath     = flag.String("qrels", "qrels.json", "path to the relevance judgments file")
		outputPath    = flag.String("output", "", "where to write the tuned parameters (overrides settings)")
		logLevel      = flag.String("log-level", "", "log level: debug, info, warn, error (overrides settings)")
		seed          = flag.Int64("seed", 0, "random seed (overrides the config; 0 keeps it)")
	)
	flag.Parse()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tunerd: %v\n", err)
		os.Exit(1)
	}
	level := settings.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger.SetDefault(logger.New(level, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, *configPath, *metricPath, *templatesPath,
		*topicsPath, *qrelsPath, *outputPath, *seed); err != nil {
		logger.Error("tuning run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settings *config.Settings,
	configPath, metricPath, templatesPath, topicsPath, qrelsPath, outputPath string,
	seed int64) error {

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Options.Seed = seed
	}
	metric, err := config.LoadMetric(metricPath)
	if err != nil {
		return err
	}
	templates, err := config.LoadTemplates(templatesPath)
	if err != nil {
		return err
	}
	topics, err := config.LoadTopics(topicsPath)
	if err != nil {
		return err
	}
	qrels, err := config.LoadQrels(qrelsPath)
	if err != nil {
		return err
	}

	templateID := settings.TemplateID
	if templateID == "" {
		if len(templates) != 1 {
			return fmt.Errorf("settings omit template_id and the template file declares %d templates", len(templates))
		}
		for id := range templates {
			templateID = id
		}
	}

	client, err := rankeval.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	evaluator, err := evaluate.New(evaluate.Inputs{
		Service:    client,
		Templates:  templates,
		TemplateID: templateID,
		Topics:     topics,
		Qrels:      qrels,
		Metric:     *metric,
		Defaults:   cfg.Defaults,
	})
	if err != nil {
		return err
	}

	generator, err := search.New(cfg, utils.NewRandSource(cfg.Options.Seed))
	if err != nil {
		return err
	}

	progress := func(p tuner.Progress) {
		logger.Info("iteration complete",
			"iteration", p.Iteration+1,
			"total", p.Total,
			"score", p.Score,
			"best_score", p.BestScore,
			"failed", p.Failed,
			"duration", p.Duration)
	}

	outcome, err := tuner.New(cfg.Method, generator, evaluator, progress).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("tuning summary",
		"run_id", outcome.RunID,
		"method", outcome.Method,
		"iterations", len(outcome.History),
		"best_score", outcome.BestScore,
		"best_candidate", outcome.BestCandidate,
		"final_candidate", outcome.FinalCandidate,
		"elapsed", outcome.Elapsed)

	if outputPath == "" {
		outputPath = settings.OutputPath
	}
	if outputPath != "" {
		if outcome.FinalCandidate == nil {
			logger.Warn("no candidate to write, every iteration failed", "path", outputPath)
			return nil
		}
		if err := tuner.WriteCandidate(outputPath, outcome.FinalCandidate); err != nil {
			return err
		}
		logger.Info("tuned parameters written", "path", outputPath)
	}
	return nil
}
