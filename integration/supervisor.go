package integration

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EntryState string

const (
	StateNotLoaded  EntryState = "not_loaded"
	StateLoaded     EntryState = "loaded"
	StateSetupRetry EntryState = "setup_retry"
	StateSetupError EntryState = "setup_error"
)

const (
	retryBaseDelay   = 5 * time.Second
	retryMaxExponent = 4
)

// RetryDelay is the wait before setup attempt tries+1 of an entry that was
// not ready: 5s, 10s, 20s, 40s and 80s from then on.
func RetryDelay(tries int) time.Duration {
	if tries > retryMaxExponent {
		tries = retryMaxExponent
	}
	if tries < 0 {
		tries = 0
	}

	return retryBaseDelay * time.Duration(1<<tries)
}

// Supervisor sets up every entry, retrying the ones that are not ready, and
// unloads them on shutdown.
type Supervisor struct {
	integration *Integration
	entries     []ConfigEntry
	logger      *zap.SugaredLogger
	delay       func(tries int) time.Duration

	mutex  sync.Mutex
	states map[string]EntryState
}

type SupervisorOption func(*Supervisor)

// WithRetryDelay replaces RetryDelay.
func WithRetryDelay(delay func(tries int) time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.delay = delay
	}
}

func NewSupervisor(integration *Integration, entries []ConfigEntry, logger *zap.SugaredLogger, opts ...SupervisorOption) *Supervisor {
	states := make(map[string]EntryState, len(entries))
	for _, entry := range entries {
		states[key(entry.MAC)] = StateNotLoaded
	}

	s := &Supervisor{
		integration: integration,
		entries:     entries,
		logger:      logger,
		delay:       RetryDelay,
		states:      states,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the setup state of the entry with mac.
func (s *Supervisor) State(mac string) EntryState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.states[key(mac)]
}

func (s *Supervisor) setState(entry ConfigEntry, state EntryState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.states[key(entry.MAC)] = state
}

// Run blocks until ctx is cancelled. It then unloads every entry and closes
// the integration.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, entry := range s.entries {
		wg.Add(1)
		go func(entry ConfigEntry) {
			defer wg.Done()
			s.setupWithRetry(ctx, entry)
		}(entry)
	}

	<-ctx.Done()
	wg.Wait()

	// ctx is done by now.
	unloadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for _, entry := range s.entries {
		if err := s.integration.UnloadEntry(unloadCtx, entry); err != nil {
			s.logger.Warnw("Unloading entry failed", "entry", entry.String(), "error", err)
			errs = append(errs, err)
		}
		s.setState(entry, StateNotLoaded)
	}

	if err := s.integration.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *Supervisor) setupWithRetry(ctx context.Context, entry ConfigEntry) {
	logger := s.logger.With("entry", entry.String())

	for tries := 0; ; tries++ {
		err := s.integration.SetupEntry(ctx, entry)
		if err == nil {
			s.setState(entry, StateLoaded)
			return
		}

		if !errors.Is(err, ErrEntryNotReady) {
			logger.Errorw("Setting up entry failed", "error", err)
			// Stop polling for an entry that stays unloaded.
			if err := s.integration.UnloadEntry(ctx, entry); err != nil {
				logger.Warnw("Unloading failed entry failed", "error", err)
			}
			s.setState(entry, StateSetupError)
			return
		}

		s.setState(entry, StateSetupRetry)
		delay := s.delay(tries)
		logger.Warnw("Entry not ready, retrying", "in", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
