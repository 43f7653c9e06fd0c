package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/docreview/internal/api"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook server and review merge requests on events",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the server port",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(c.Context, cfg, "")
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if c.Int("port") > 0 {
		port = c.Int("port")
	}

	server := api.NewServer(port, cfg.GitLab.WebhookSecret, svc)
	return server.Start()
}
