// Package cmd wires the CLI commands to the review pipeline.
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/docreview/internal/config"
	"github.com/docreview/internal/gitlabhost"
	"github.com/docreview/internal/llm"
	"github.com/docreview/internal/logging"
	"github.com/docreview/internal/review"
)

// NewApp builds the docreview CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "docreview",
		Usage: "Documentation-aware review for merge requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			ReviewCommand(),
			ServeCommand(),
			ConfigCommand(),
		},
	}
}

// loadConfig reads configuration and initializes logging.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	level := cfg.General.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	logging.Setup(level, true)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildService assembles the pipeline from configuration: host client,
// optional model backend and the synthesizer.
func buildService(ctx context.Context, cfg *config.Config, aiOverride string) (*review.Service, error) {
	host, err := gitlabhost.New(cfg.GitLab.URL, cfg.GitLab.Token)
	if err != nil {
		return nil, err
	}

	client, err := buildModelClient(ctx, cfg, aiOverride)
	if err != nil {
		return nil, err
	}

	limits := review.Limits{
		MaxPromptFindings: cfg.Review.MaxPromptFindings,
		MaxCodeExcerpts:   cfg.Review.MaxCodeExcerpts,
		MaxPatchLines:     cfg.Review.MaxPatchLines,
	}
	svc := review.NewService(host, review.NewSynthesizer(client, limits))
	svc.SetMoveThreshold(cfg.Review.MoveSimilarityThreshold)
	return svc, nil
}

// buildModelClient returns nil when no AI backend is configured; the
// pipeline then runs its deterministic path.
func buildModelClient(ctx context.Context, cfg *config.Config, aiOverride string) (llm.Client, error) {
	name := cfg.General.AI
	if aiOverride != "" {
		name = aiOverride
	}
	if name == "" {
		return nil, nil
	}

	aiCfg, ok := cfg.AI[name]
	if !ok {
		return nil, fmt.Errorf("configuration for AI provider %s not found", name)
	}

	connector, err := llm.NewConnector(ctx, llm.Options{
		Provider:    llm.Provider(name),
		APIKey:      aiCfg.APIKey,
		BaseURL:     aiCfg.BaseURL,
		Model:       aiCfg.Model,
		Temperature: aiCfg.Temperature,
		MaxTokens:   aiCfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewResilientClient(connector, aiCfg.Timeout), nil
}
