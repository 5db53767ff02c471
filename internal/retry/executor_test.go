package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyDial struct {
	calls     int
	failUntil int
	failWith  error
}

func (f *flakyDial) connect(context.Context) error {
	f.calls++
	if f.calls < f.failUntil {
		return f.failWith
	}
	return nil
}

func fastBackoff(attempts int) *ExponentialBackoff {
	return NewExponentialBackoff(attempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

var errRefused = &pgconn.PgError{Code: "08001", Message: "could not connect"}

func TestExecutor_SucceedsFirstTime(t *testing.T) {
	dial := &flakyDial{failUntil: 1}
	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3)).Execute(context.Background(), dial.connect)

	require.NoError(t, err)
	assert.Equal(t, 1, dial.calls)
}

func TestExecutor_RetriesTransientUntilSuccess(t *testing.T) {
	dial := &flakyDial{failUntil: 3, failWith: errRefused}
	var retries []int

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }).
		Execute(context.Background(), dial.connect)

	require.NoError(t, err)
	assert.Equal(t, 3, dial.calls)
	assert.Equal(t, []int{0, 1}, retries)
}

func TestExecutor_GivesUpAfterBudget(t *testing.T) {
	dial := &flakyDial{failUntil: 100, failWith: errRefused}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2)).Execute(context.Background(), dial.connect)

	require.Error(t, err)
	assert.Equal(t, 3, dial.calls, "one initial attempt plus two retries")
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestExecutor_ZeroBudgetRunsOnce(t *testing.T) {
	dial := &flakyDial{failUntil: 100, failWith: errRefused}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(0)).Execute(context.Background(), dial.connect)

	require.Error(t, err)
	assert.Equal(t, 1, dial.calls)
}

func TestExecutor_FatalErrorNotRetried(t *testing.T) {
	dial := &flakyDial{failUntil: 100, failWith: &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).Execute(context.Background(), dial.connect)

	require.Error(t, err)
	assert.Equal(t, 1, dial.calls)
}

func TestExecutor_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dial := &flakyDial{failUntil: 100, failWith: errRefused}

	executor := NewExecutor(NewPostgreSQLErrorClassifier(), NewExponentialBackoff(-1, WithInitialDelay(time.Hour), WithJitter(0))).
		WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := executor.Execute(ctx, dial.connect)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, dial.calls)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil) })
}
