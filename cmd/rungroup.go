package main

import (
	"context"
	"errors"
	"sync"

	me "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

type Runnable interface {
	Run(ctx context.Context) error
}

type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) Run(ctx context.Context) error { return f(ctx) }

// RunGroup runs components until ctx is done or one of them fails. A failure
// cancels the others; every failure is reported.
type RunGroup struct {
	runnables []Runnable
}

func (a *RunGroup) Add(r Runnable) {
	a.runnables = append(a.runnables, r)
}

func (a *RunGroup) RunAndWait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		errs *me.Error
	)

	for i := range a.runnables {
		r := a.runnables[i]
		g.Go(func() error {
			err := r.Run(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}

			mu.Lock()
			errs = me.Append(errs, err)
			mu.Unlock()

			return err
		})
	}

	_ = g.Wait()

	return errs.ErrorOrNil()
}
