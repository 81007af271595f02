package retry

import (
	"context"
	"time"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Executor runs an operation until it succeeds, fails fatally or runs out
// of attempts.
//
// The Executor is safe for concurrent use. WithOnRetry returns a copy, so
// the original keeps its own configuration.
type Executor struct {
	classifier fsgen.ErrorClassifier
	strategy   fsgen.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier fsgen.ErrorClassifier, strategy fsgen.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// NoRetry returns an Executor that runs the operation exactly once.
func NoRetry() *Executor {
	return NewExecutor(NewFileSystemErrorClassifier(), NewExponentialBackoff(0))
}

// WithOnRetry returns a new Executor with the specified retry callback.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// MaxAttempts returns how many retries follow a transient failure.
func (e *Executor) MaxAttempts() int {
	return e.strategy.MaxAttempts()
}

// Execute runs operation, retrying while its error is transient.
// Returns the error of the last attempt, or ctx.Err() if the context ends
// during a backoff wait.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}

	return err
}
