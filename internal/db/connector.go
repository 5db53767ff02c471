package db

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparkify-data/sparkify-etl/internal/retry"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// The loader drives a single session, so the pool stays small.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute

	// tokenExpiryWarning triggers a warning when a cloud token is close to
	// expiry at connect time.
	tokenExpiryWarning = 5 * time.Minute
)

// ConnectorFactory creates a Connector for a resolved configuration.
type ConnectorFactory func(cfg *sparkify.ConnectionConfig, logger sparkify.Logger) (sparkify.Connector, error)

// NewConnector picks the connector for cfg.AuthMethod.
func NewConnector(cfg *sparkify.ConnectionConfig, logger sparkify.Logger) (sparkify.Connector, error) {
	switch cfg.AuthMethod {
	case sparkify.AuthMethodStandard:
		return NewStandardConnector(cfg, logger), nil
	case sparkify.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.AWSRegion, cfg.Username)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", sparkify.ErrInvalidConfig, err)
		}
		return NewTokenConnector(cfg, provider, logger), nil
	case sparkify.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(cfg)
		if err != nil {
			return nil, err
		}
		return NewTokenConnector(cfg, provider, logger), nil
	case sparkify.AuthMethodGoogleIAM:
		if cfg.GoogleInstance == "" {
			return nil, fmt.Errorf("google cloud sql auth requires google_instance (project:region:instance): %w", sparkify.ErrInvalidConfig)
		}
		if cfg.Username == "" {
			return nil, fmt.Errorf("google cloud sql auth requires a username: %w", sparkify.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(cfg, logger), nil
	default:
		return nil, fmt.Errorf("auth method %v: %w", cfg.AuthMethod, sparkify.ErrUnsupportedAuthMethod)
	}
}

func newAzureTokenProvider(cfg *sparkify.ConnectionConfig) (TokenProvider, error) {
	if cfg.AzureTenantID != "" && cfg.AzureClientID != "" && cfg.AzureClientSecret != "" {
		return NewAzureServicePrincipalProvider(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret)
	}
	return NewAzureDefaultCredentialProvider()
}

// StandardConnector connects with the configured password.
type StandardConnector struct {
	*TokenConnector
}

// NewStandardConnector creates a password-based connector.
func NewStandardConnector(cfg *sparkify.ConnectionConfig, logger sparkify.Logger) *StandardConnector {
	return &StandardConnector{TokenConnector: NewTokenConnector(cfg, nil, logger)}
}

// TokenConnector connects with a short-lived token as password (AWS IAM,
// Azure Entra ID). A nil provider uses the configured password.
type TokenConnector struct {
	config   *sparkify.ConnectionConfig
	provider TokenProvider
	executor *retry.Executor
	logger   sparkify.Logger
}

// NewTokenConnector creates a connector. The initial connection is retried
// cfg.ConnectRetries times; zero disables retries.
func NewTokenConnector(cfg *sparkify.ConnectionConfig, provider TokenProvider, logger sparkify.Logger) *TokenConnector {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	retries := cfg.ConnectRetries
	if retries < 0 {
		retries = 0
	}
	strategy := retry.NewExponentialBackoff(retries,
		retry.WithInitialDelay(sparkify.DefaultRetryInitialDelay),
		retry.WithMaxDelay(sparkify.DefaultRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("connect attempt %d failed, retrying in %v: %v", attempt+1, delay.Round(time.Millisecond), err)
		})

	return &TokenConnector{config: cfg, provider: provider, executor: executor, logger: logger}
}

// Connect opens and pings a pool. Failures wrap sparkify.ErrConnectionFailed.
func (c *TokenConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		cfg := *c.config
		if c.provider != nil {
			token, expiresOn, err := c.provider.GetToken(ctx)
			if err != nil {
				return fmt.Errorf("acquire token from %s: %w", c.provider, err)
			}
			if left := time.Until(expiresOn); left < tokenExpiryWarning {
				c.logger.Warn("%s token expires in %v", c.provider, left.Round(time.Second))
			}
			cfg.Password = token
		}

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&cfg))
		if err != nil {
			return fmt.Errorf("parse connection config: %w", err)
		}
		c.configurePool(poolConfig)

		pool, err = openPool(ctx, poolConfig)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sparkify.ErrConnectionFailed, describeConnectionError(err, c.config))
	}
	return pool, nil
}

func (c *TokenConnector) configurePool(poolConfig *pgxpool.Config) {
	configurePool(poolConfig, c.logger)
}

func configurePool(poolConfig *pgxpool.Config, logger sparkify.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

func openPool(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// GoogleCloudSQLConnector dials through the Cloud SQL connector with IAM
// database authentication. Close must be called after the pool is closed.
type GoogleCloudSQLConnector struct {
	config *sparkify.ConnectionConfig
	logger sparkify.Logger
	dialer *cloudsqlconn.Dialer
}

func NewGoogleCloudSQLConnector(cfg *sparkify.ConnectionConfig, logger sparkify.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: cfg, logger: logger}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: create cloud sql dialer: %w", sparkify.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
		c.config.GoogleInstance, c.config.Username, c.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.config.GoogleInstance)
	}
	configurePool(poolConfig, c.logger)

	pool, err := openPool(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("%w: %w", sparkify.ErrConnectionFailed, err)
	}
	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}

// describeConnectionError adds a short hint for the common startup failures.
func describeConnectionError(err error, cfg *sparkify.ConnectionConfig) error {
	msg := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	switch {
	case strings.Contains(msg, "connection refused"):
		return fmt.Errorf("connection refused by %s (is PostgreSQL running? try: pg_isready -h %s -p %d): %w", addr, cfg.Host, cfg.Port, err)
	case strings.Contains(msg, "no such host"):
		return fmt.Errorf("cannot resolve host %q: %w", cfg.Host, err)
	case strings.Contains(msg, "password authentication failed"):
		return fmt.Errorf("password authentication failed for user %q (check $PGPASSWORD or the connection string): %w", cfg.Username, err)
	case strings.Contains(msg, "does not exist"):
		return fmt.Errorf("database %q does not exist (create it, then run: sparkify-etl schema create): %w", cfg.Database, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return fmt.Errorf("connection to %s timed out: %w", addr, err)
	default:
		return fmt.Errorf("connect to %s/%s: %w", addr, cfg.Database, err)
	}
}

var (
	_ sparkify.Connector = (*StandardConnector)(nil)
	_ sparkify.Connector = (*TokenConnector)(nil)
	_ sparkify.Connector = (*GoogleCloudSQLConnector)(nil)
)
