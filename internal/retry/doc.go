// Package retry retries the initial store connection with exponential backoff.
//
// Only connection establishment is retried. Once files are being loaded a lost
// connection ends the run, so Classifier.IsConnectionLoss is used by the store
// to tag such failures rather than to schedule another attempt.
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    pool, err = pgxpool.NewWithConfig(ctx, cfg)
//	    return err
//	})
package retry
