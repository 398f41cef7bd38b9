package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun attaches a name to a runnable for logging.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Runner starts runnables in goroutines and waits for all of them,
// aggregating their errors. Context cancellation is the stop signal.
type Runner struct {
	Context context.Context

	count  int
	errCh  chan error
	forced chan struct{}
}

// NewRunner creates a runner over a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner over the given context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error, 1),
		forced:  make(chan struct{}),
	}
}

// HandleSignals stops the runner on SIGINT or SIGTERM. A second signal
// forces Wait to give up on runnables that have not stopped yet.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stopping")
		cancel()
		<-sigCh
		glog.Error("second stop request, giving up")
		close(r.forced)
	}()
	return r
}

// Go starts runnables with the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	return r.GoWith(r.Context, runnables...)
}

// GoWith starts runnables with a specific context.
func (r *Runner) GoWith(ctx context.Context, runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(r.count)
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.count++
		go func(runnable Runnable, name string) {
			glog.V(4).Infof("runner %s started", name)
			err := runnable.Run(ctx)
			glog.V(4).Infof("runner %s stopped: %v", name, err)
			r.errCh <- err
		}(runnable, name)
	}
	return r
}

// Wait blocks until every started runnable returns, or a forced stop.
// context.Canceled returns are treated as clean exits.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for i := 0; i < r.count; i++ {
		select {
		case <-r.forced:
			return errors.New("forced exit")
		case err := <-r.errCh:
			if err != context.Canceled {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel adapts a plain blocking func to a context. When
// the context ends first, onCancel is invoked to unblock fn and the
// return value is context.Canceled.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-done
		return context.Canceled
	}
}

// RunWithContext is RunWithContextCancel without a cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser runs fn and guarantees closer.Close is called,
// either to unblock fn on cancellation or after fn returns on its own.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := RunWithContextCancel(ctx, func() {
		closed = true
		closer.Close()
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
