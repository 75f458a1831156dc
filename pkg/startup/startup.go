// Package startup brings service dependencies up in declared order with
// retries, and tears them down in reverse.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// StartupDependency is one unit of service infrastructure. DependsOn names
// dependencies that must be started first.
type StartupDependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type startupStatus int

const (
	statusPending startupStatus = iota
	statusStarted
	statusStopped
	statusFailed
)

// Startup starts registered dependencies with fibonacci backoff between
// failed attempts. Registration order is preserved, so startup is
// deterministic and Stop unwinds in exact reverse.
type Startup struct {
	order        []string
	dependencies map[string]StartupDependency
	statuses     map[string]startupStatus
	logger       ectologger.Logger
	maxAttempts  int
}

func NewStartup(logger ectologger.Logger, maxAttempts int) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Startup{
		dependencies: make(map[string]StartupDependency),
		statuses:     make(map[string]startupStatus),
		logger:       logger,
		maxAttempts:  maxAttempts,
	}
}

// AddDependency registers a dependency. Registering the same name twice
// replaces the earlier one but keeps its position.
func (s *Startup) AddDependency(dependency StartupDependency) {
	name := dependency.GetName()
	if _, exists := s.dependencies[name]; !exists {
		s.order = append(s.order, name)
	}
	s.dependencies[name] = dependency
}

// Start brings every dependency up, retrying the whole sequence with
// fibonacci backoff until it succeeds or attempts run out.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	waitA, waitB := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = s.startAll(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		s.logger.WithError(lastErr).Infof("Retrying startup in %d seconds (attempt %d/%d)", waitA, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(waitA) * time.Second):
		}
		waitA, waitB = waitB, waitA+waitB
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startAll(ctx context.Context) error {
	for _, name := range s.order {
		if err := s.startDependency(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Startup) startDependency(ctx context.Context, name string) error {
	if s.statuses[name] == statusStarted {
		return nil
	}

	dependency, ok := s.dependencies[name]
	if !ok {
		return fmt.Errorf("startup dependency %q is not registered", name)
	}

	for _, upstream := range dependency.DependsOn() {
		if err := s.startDependency(ctx, upstream); err != nil {
			return err
		}
	}

	s.logger.WithField("dependency", name).Infof("Starting dependency '%s'", name)
	if err := dependency.Start(ctx); err != nil {
		s.statuses[name] = statusFailed
		s.logger.WithError(err).WithField("dependency", name).Errorf("Failed to start dependency '%s'", name)
		return err
	}
	s.statuses[name] = statusStarted
	return nil
}

// Stop tears started dependencies down in reverse registration order. The
// first stop error aborts the unwind.
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.order) - 1; i >= 0; i-- {
		name := s.order[i]
		if s.statuses[name] != statusStarted {
			continue
		}

		s.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := s.dependencies[name].Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Errorf("Failed to stop dependency '%s'", name)
			return err
		}
		s.statuses[name] = statusStopped
	}
	return nil
}
