package songtagd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ModuleRunner runs a module within the supervisor.
type ModuleRunner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor manages module lifecycles.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts all module runners and waits until ctx is done or one of them
// fails. A failure cancels the remaining modules.
func (s Supervisor) Run(ctx context.Context, modules []ModuleRunner) error {
	if len(modules) == 0 {
		return errors.New("no modules enabled")
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, m := range modules {
		group.Go(func() error {
			log := logger.With(zap.String("module", m.Name))
			log.Info("starting module")
			if err := m.Run(groupCtx); err != nil {
				log.Error("module exited", zap.Error(err))
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			log.Info("module stopped")
			return nil
		})
	}

	go func() {
		<-groupCtx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown requested")
		}
	}()
	return group.Wait()
}
