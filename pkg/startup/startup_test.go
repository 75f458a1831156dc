package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeDependency records start/stop invocations into a shared journal.
type fakeDependency struct {
	name      string
	dependsOn []string
	journal   *[]string
	startErrs int
	stopErr   error
}

func (d *fakeDependency) GetName() string     { return d.name }
func (d *fakeDependency) DependsOn() []string { return d.dependsOn }

func (d *fakeDependency) Start(ctx context.Context) error {
	if d.startErrs > 0 {
		d.startErrs--
		return errors.New(d.name + " not ready")
	}
	*d.journal = append(*d.journal, "start:"+d.name)
	return nil
}

func (d *fakeDependency) Stop(ctx context.Context) error {
	*d.journal = append(*d.journal, "stop:"+d.name)
	return d.stopErr
}

func TestStartup_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("starts upstream dependencies first", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 1)
		s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database", "kafka"}, journal: &journal})
		s.AddDependency(&fakeDependency{name: "kafka", dependsOn: []string{"database"}, journal: &journal})
		s.AddDependency(&fakeDependency{name: "database", journal: &journal})

		require.NoError(t, s.Start(ctx))
		assert.Equal(t, []string{"start:database", "start:kafka", "start:server"}, journal)
	})

	t.Run("started dependencies are not restarted on retry", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 3)
		s.AddDependency(&fakeDependency{name: "database", journal: &journal})
		s.AddDependency(&fakeDependency{name: "kafka", dependsOn: []string{"database"}, journal: &journal, startErrs: 1})

		require.NoError(t, s.Start(ctx))
		assert.Equal(t, []string{"start:database", "start:kafka"}, journal)
	})

	t.Run("fails after exhausting attempts", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 2)
		s.AddDependency(&fakeDependency{name: "database", journal: &journal, startErrs: 5})

		err := s.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})

	t.Run("unregistered upstream is an error", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 1)
		s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database"}, journal: &journal})

		err := s.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
	})
}

func TestStartup_Stop(t *testing.T) {
	ctx := context.Background()

	t.Run("stops in reverse registration order", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 1)
		s.AddDependency(&fakeDependency{name: "database", journal: &journal})
		s.AddDependency(&fakeDependency{name: "kafka", dependsOn: []string{"database"}, journal: &journal})
		s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database", "kafka"}, journal: &journal})

		require.NoError(t, s.Start(ctx))
		journal = journal[:0]

		require.NoError(t, s.Stop(ctx))
		assert.Equal(t, []string{"stop:server", "stop:kafka", "stop:database"}, journal)
	})

	t.Run("skips dependencies that never started", func(t *testing.T) {
		var journal []string
		s := NewStartup(testLogger(), 1)
		s.AddDependency(&fakeDependency{name: "database", journal: &journal})

		require.NoError(t, s.Stop(ctx))
		assert.Empty(t, journal)
	})
}
