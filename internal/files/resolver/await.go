package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// produce invokes p on its own goroutine and waits for the first call to done.
// Later calls to done are dropped. A panic inside p becomes the error.
func produce[T any](ctx context.Context, p func(done func(T, error))) (T, error) {
	results := make(chan fsgen.Result[T], 1)
	var once sync.Once
	deliver := func(v T, err error) {
		once.Do(func() {
			results <- fsgen.Result[T]{Value: v, Err: err}
		})
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				deliver(zero, fmt.Errorf("producer panicked: %v", r))
			}
		}()
		p(deliver)
	}()

	var zero T
	select {
	case r := <-results:
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
