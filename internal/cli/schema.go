package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sparkify-data/sparkify-etl/internal/db"
	"github.com/sparkify-data/sparkify-etl/internal/logging"
	"github.com/sparkify-data/sparkify-etl/internal/store"
	"github.com/sparkify-data/sparkify-etl/internal/ui"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the analytics tables",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the songs, artists, users, time and songplays tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool, logger sparkify.Logger) error {
			if err := store.CreateSchema(ctx, pool); err != nil {
				return err
			}
			logger.Info("✓ Schema created")
			return nil
		})
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the analytics tables and all loaded data",
	Long: `Drop removes the five analytics tables and all loaded data.

You are asked to type the database name to confirm. With --force the drop
proceeds after a short countdown instead; --force is required when stdin is
not a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		verbose := getVerboseFlag(cmd)
		var approver sparkify.Approver
		switch {
		case schemaDropForce:
			approver = ui.NewForcedApprover(verbose)
		case stdinIsTerminal():
			approver = ui.NewInteractiveApprover(verbose)
		default:
			return fmt.Errorf("refusing to drop tables without --force when stdin is not a terminal: %w", sparkify.ErrInvalidConfig)
		}

		return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool, logger sparkify.Logger) error {
			dbName := pool.Config().ConnConfig.Database
			approved, err := approver.RequestApproval(ctx, dbName)
			if err != nil {
				return err
			}
			if !approved {
				return fmt.Errorf("schema drop on %s: %w", dbName, sparkify.ErrApprovalDenied)
			}
			if err := store.DropSchema(ctx, pool); err != nil {
				return err
			}
			logger.Info("✓ Schema dropped")
			return nil
		})
	},
}

var schemaPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the schema DDL",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), store.SchemaSQL())
	},
}

var schemaDropForce bool

var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func init() {
	schemaDropCmd.Flags().BoolVar(&schemaDropForce, "force", false,
		"Skip the interactive prompt; drop after a 5 second countdown")
	schemaCmd.AddCommand(schemaCreateCmd, schemaDropCmd, schemaPrintCmd)
	rootCmd.AddCommand(schemaCmd)
}

// withPool resolves the connection, connects and runs fn against the pool.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool, logger sparkify.Logger) error) error {
	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	projectCfg, err := loadProjectConfig(globalFlags.configDir)
	if err != nil {
		return err
	}
	connConfig, err := resolveConnection(projectCfg, logger)
	if err != nil {
		return err
	}

	connector, err := db.NewConnector(connConfig, logger)
	if err != nil {
		return err
	}
	if c, ok := connector.(io.Closer); ok {
		defer c.Close()
	}

	ctx := commandContext(cmd)
	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool, logger)
}
