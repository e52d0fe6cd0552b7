package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Task is a unit of work executed by a Pool
type Task func(ctx context.Context) error

// Pool executes tasks with bounded parallelism and panic recovery
//
// Behavior:
//   - Runs at most size tasks at a time
//   - Recovers from panics in tasks and reports them as errors
//   - Stops handing out tasks after the first failure
//   - Cancellation of the given context aborts remaining tasks
type Pool struct {
	size int
}

// NewPool creates a pool running at most size tasks concurrently.
// Sizes below 1 are clamped to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

// Run executes all tasks and returns the first error encountered. Tasks
// already running when an error occurs are allowed to finish.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	queue := make(chan Task)
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if err := runTask(runCtx, task); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for _, task := range tasks {
		select {
		case <-runCtx.Done():
			break feed
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// runTask executes a single task, converting panics into errors
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger := ctxlog.From(ctx)
			logger.Error("panic in pool task",
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic in pool task", goerr.V("recover", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return task(ctx)
}
