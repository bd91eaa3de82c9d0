package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/integration"
)

func runSupervisor(t *testing.T, supervisor *integration.Supervisor) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- supervisor.Run(ctx)
	}()
	t.Cleanup(cancel)

	return cancel, done
}

func TestSupervisorSetsUpEntries(t *testing.T) {
	f := newFixture(t)
	supervisor := integration.NewSupervisor(f.integration, []integration.ConfigEntry{entry}, zap.NewNop().Sugar())

	cancel, done := runSupervisor(t, supervisor)

	assert.Eventually(t, func() bool {
		return supervisor.State(entry.MAC) == integration.StateLoaded
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, integration.StateNotLoaded, supervisor.State(entry.MAC))
	assert.Equal(t, 1, f.coordinators[0].Unloads())
	assert.True(t, f.controllers[0].Closed())
	for _, name := range integration.Platforms {
		assert.Equal(t, 1, f.platforms[name].Unloads(entry.MAC), name)
	}
}

func TestSupervisorRetriesEntriesThatAreNotReady(t *testing.T) {
	f := newFixture(t)
	f.setInitErr(errors.New("connection refused"))

	var tries []int
	supervisor := integration.NewSupervisor(f.integration, []integration.ConfigEntry{entry}, zap.NewNop().Sugar(),
		integration.WithRetryDelay(func(n int) time.Duration {
			tries = append(tries, n)
			if n == 2 {
				f.setInitErr(nil)
			}
			return time.Millisecond
		}))

	cancel, done := runSupervisor(t, supervisor)

	assert.Eventually(t, func() bool {
		return supervisor.State(entry.MAC) == integration.StateLoaded
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int{0, 1, 2}, tries)
	controllers, coordinators := f.created()
	assert.Equal(t, 4, controllers)
	assert.Equal(t, 1, coordinators)
}

func TestSupervisorGivesUpOnSetupErrors(t *testing.T) {
	f := newFixture(t)
	f.platforms[integration.PlatformFan].SetupErr = errors.New("publish failed")
	supervisor := integration.NewSupervisor(f.integration, []integration.ConfigEntry{entry}, zap.NewNop().Sugar(),
		integration.WithRetryDelay(func(int) time.Duration { return time.Millisecond }))

	cancel, done := runSupervisor(t, supervisor)

	assert.Eventually(t, func() bool {
		return supervisor.State(entry.MAC) == integration.StateSetupError
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, f.coordinators[0].Unloads())
	assert.False(t, f.integration.Registry().IsCoordinatorExists(entry.MAC))
	for _, name := range integration.Platforms {
		assert.Equal(t, 1, f.platforms[name].Unloads(entry.MAC), name)
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.coordinators[0].Unloads())
}

func TestSupervisorStopsRetryingOnShutdown(t *testing.T) {
	f := newFixture(t)
	f.setInitErr(errors.New("connection refused"))
	supervisor := integration.NewSupervisor(f.integration, []integration.ConfigEntry{entry}, zap.NewNop().Sugar(),
		integration.WithRetryDelay(func(int) time.Duration { return time.Hour }))

	cancel, done := runSupervisor(t, supervisor)

	assert.Eventually(t, func() bool {
		return supervisor.State(entry.MAC) == integration.StateSetupRetry
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
}
