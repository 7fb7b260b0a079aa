package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/repository/firestore"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var (
		projectID  string
		databaseID string
		dryRun     bool
	)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore indexes used by the turn log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("HIPPO_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("HIPPO_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Only print the planned index changes",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.From(ctx).Info("Migrating turn log indexes",
				"project_id", projectID,
				"database_id", databaseID,
				"dry_run", dryRun)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client",
					goerr.V("project_id", projectID))
			}
			defer safe.Close(ctx, client)

			cfg := firestore.IndexConfig()
			logger := logging.From(ctx)

			if !dryRun {
				if err := client.Migrate(ctx, cfg); err != nil {
					return goerr.Wrap(err, "failed to apply index migration")
				}
				logger.Info("Turn log indexes are up to date")
				return nil
			}

			plan, err := client.GetMigrationPlan(ctx, cfg)
			if err != nil {
				return goerr.Wrap(err, "failed to build index migration plan")
			}
			if len(plan.Steps) == 0 {
				logger.Info("No index changes required")
			}
			for _, step := range plan.Steps {
				logger.Info("Planned index change",
					"collection", step.Collection,
					"operation", step.Operation,
					"description", step.Description,
					"destructive", step.Destructive)
			}
			return nil
		},
	}
}
