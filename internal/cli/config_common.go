package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sparkify-data/sparkify-etl/internal/config"
	"github.com/sparkify-data/sparkify-etl/internal/db"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// loadProjectConfig loads dir/.env and dir/sparkify.yaml.
// Returns nil config if sparkify.yaml does not exist (not an error).
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	// Existing environment variables win over .env entries.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	projectCfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, sparkify.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// resolveConnection applies the connection precedence chain and logs the
// result without the password.
func resolveConnection(projectCfg *config.ProjectConfig, logger sparkify.Logger) (*sparkify.ConnectionConfig, error) {
	connConfig, err := db.ResolveConnectionParams(globalFlags.connection, db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return nil, err
	}
	logger.Verbose("Connection resolved: %s (auth: %s)", db.Redacted(connConfig), connConfig.AuthMethod)
	return connConfig, nil
}

// stringSetting picks the flag value when it was set explicitly, then the
// sparkify.yaml value, then the flag default.
func stringSetting(cmd *cobra.Command, flag, flagValue, yamlValue string) string {
	if cmd.Flags().Changed(flag) || yamlValue == "" {
		return flagValue
	}
	return yamlValue
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
