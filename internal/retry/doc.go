// Package retry re-invokes failed file writes when the failure is a
// transient operating system condition.
//
// The write engine itself never retries. Callers such as the generate
// command opt in by wrapping each WriteTo call in an Executor.
//
// # Example Usage
//
//	executor := retry.NewExecutor(
//	    retry.NewFileSystemErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return w.WriteTo(ctx, dest)
//	})
//
// # Error Classification
//
// FileSystemErrorClassifier treats EAGAIN, EBUSY, EINTR, ETXTBSY, EMFILE and
// ENFILE as transient. Content and copy resolution failures are never
// transient, even when their cause is, because re-running a rejected
// computation is the producer's business.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
