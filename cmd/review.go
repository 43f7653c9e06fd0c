package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/docreview/internal/gitlabhost"
	"github.com/docreview/internal/review"
)

// ReviewCommand returns the review command.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review the documentation changes of one merge request",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Print the review without posting it",
			},
			&cli.StringFlag{
				Name:    "ai",
				Aliases: []string{"a"},
				Usage:   "Override the AI provider to use",
			},
		},
		ArgsUsage: "MR_URL",
		Action:    runReview,
	}
}

func runReview(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: merge request URL")
	}

	project, iid, err := gitlabhost.ParseMergeRequestURL(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(c.Context, cfg, c.String("ai"))
	if err != nil {
		return err
	}

	outcome, err := svc.Run(c.Context, review.Request{
		Project: project,
		MRIID:   iid,
		DryRun:  c.Bool("dry-run"),
	})
	if err != nil {
		return err
	}

	if outcome.Skipped {
		fmt.Printf("No documentation changes in %s!%d, nothing to review\n", project, iid)
		return nil
	}
	if c.Bool("dry-run") {
		fmt.Println(outcome.Comment)
		return nil
	}

	fmt.Printf("Review posted on %s!%d: %s (confidence %.0f%%)\n",
		project, iid, outcome.Review.Verdict.Value, outcome.Review.Verdict.Confidence*100)
	return nil
}
