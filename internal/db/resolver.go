package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sparkify-data/sparkify-etl/internal/config"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// EnvVars holds the environment consulted during connection resolution.
// See https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	SPARKIFY_CONNECTION_STRING string
	DATABASE_URL               string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	// Azure SDK standard names
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION string
}

// LoadFromEnvironment snapshots the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		SPARKIFY_CONNECTION_STRING: os.Getenv("SPARKIFY_CONNECTION_STRING"),
		DATABASE_URL:               os.Getenv("DATABASE_URL"),
		PGHOST:                     os.Getenv("PGHOST"),
		PGPORT:                     os.Getenv("PGPORT"),
		PGUSER:                     os.Getenv("PGUSER"),
		PGPASSWORD:                 os.Getenv("PGPASSWORD"),
		PGDATABASE:                 os.Getenv("PGDATABASE"),
		PGSSLMODE:                  os.Getenv("PGSSLMODE"),
		AZURE_TENANT_ID:            os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:            os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:        os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                 os.Getenv("AWS_REGION"),
	}
}

// ResolveConnectionParams builds the connection configuration.
//
// A full connection string wins outright, taken from the first non-empty of
// connStringFlag, $SPARKIFY_CONNECTION_STRING and $DATABASE_URL. Fields the
// string leaves out, and every field when there is no string, are filled per
// field from sparkify.yaml, then PG* variables, then the built-in defaults.
//
// The auth method comes from sparkify.yaml. Azure credentials present in the
// environment switch a standard config to Azure Entra ID.
func ResolveConnectionParams(connStringFlag string, env *EnvVars, project *config.ProjectConfig) (*sparkify.ConnectionConfig, error) {
	if env == nil {
		env = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if project != nil {
		pc = project.Connection
	}

	cfg := newConnectionConfig()
	if connStr := firstNonEmpty(connStringFlag, env.SPARKIFY_CONNECTION_STRING, env.DATABASE_URL); connStr != "" {
		parsed, err := ParseConnectionString(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w", err)
		}
		cfg = parsed
	}

	cfg.Host = firstNonEmpty(cfg.Host, pc.Host, env.PGHOST, DefaultHost)
	cfg.Username = firstNonEmpty(cfg.Username, pc.Username, env.PGUSER, DefaultUser)
	cfg.Password = firstNonEmpty(cfg.Password, env.PGPASSWORD)
	cfg.Database = firstNonEmpty(cfg.Database, pc.Database, env.PGDATABASE, DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(cfg.SSLMode, pc.SSLMode, env.PGSSLMODE, DefaultSSLMode)

	if cfg.Port == 0 {
		switch {
		case pc.Port != 0:
			cfg.Port = pc.Port
		case env.PGPORT != "":
			port, err := strconv.Atoi(env.PGPORT)
			if err != nil {
				return nil, fmt.Errorf("invalid $PGPORT value %q: %w", env.PGPORT, sparkify.ErrInvalidConfig)
			}
			cfg.Port = port
		default:
			cfg.Port = DefaultPort
		}
	}

	method, err := sparkify.ParseAuthMethod(pc.AuthMethod)
	if err != nil {
		return nil, err
	}
	cfg.AuthMethod = method
	cfg.AWSRegion = firstNonEmpty(pc.AWSRegion, env.AWS_REGION)
	cfg.GoogleInstance = pc.GoogleInstance

	applyAzureAuth(cfg, &pc, env)
	return cfg, nil
}

// applyAzureAuth attaches Entra ID credentials. sparkify.yaml beats the
// environment; the client secret only ever comes from the environment.
func applyAzureAuth(cfg *sparkify.ConnectionConfig, pc *config.ConnectionConfig, env *EnvVars) {
	tenantID := firstNonEmpty(pc.AzureTenantID, env.AZURE_TENANT_ID)
	clientID := firstNonEmpty(pc.AzureClientID, env.AZURE_CLIENT_ID)

	if cfg.AuthMethod == sparkify.AuthMethodStandard && (tenantID != "" || clientID != "") {
		cfg.AuthMethod = sparkify.AuthMethodAzureEntraID
	}
	if cfg.AuthMethod == sparkify.AuthMethodAzureEntraID {
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
