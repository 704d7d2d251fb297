package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/airship/internal/domain"
)

// stateRecorder collects state changes.
type stateRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *stateRecorder) OnStateChange(previous, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, previous.String()+">"+current.String())
}

func (r *stateRecorder) Steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.steps...)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// step is one lifecycle call in a run: a transition, or a crash when crash
// is non-nil.
type step struct {
	to    State
	crash error
}

func TestLifecycle_Runs(t *testing.T) {
	lost := errors.New("device disconnected")

	tests := []struct {
		name      string
		steps     []step
		wantState State
		wantErr   error
		wantSteps []string
	}{
		{
			name:      "replay finishes on its own",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStopped}},
			wantState: StateStopped,
			wantSteps: []string{"Stopped>Starting", "Starting>Running", "Running>Stopped"},
		},
		{
			name:      "stop requested while running",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStopping}, {to: StateStopped}},
			wantState: StateStopped,
			wantSteps: []string{"Stopped>Starting", "Starting>Running", "Running>Stopping", "Stopping>Stopped"},
		},
		{
			name:      "stop wins the startup race",
			steps:     []step{{to: StateStarting}, {to: StateStopping}, {to: StateStopped}},
			wantState: StateStopped,
			wantSteps: []string{"Stopped>Starting", "Starting>Stopping", "Stopping>Stopped"},
		},
		{
			name:      "source lost while running",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {crash: lost}},
			wantState: StateCrashed,
			wantErr:   lost,
			wantSteps: []string{"Stopped>Starting", "Starting>Running", "Running>Crashed"},
		},
		{
			name:      "shutdown times out",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStopping}, {crash: domain.ErrShutdownTimeout}},
			wantState: StateCrashed,
			wantErr:   domain.ErrShutdownTimeout,
			wantSteps: []string{"Stopped>Starting", "Starting>Running", "Running>Stopping", "Stopping>Crashed"},
		},
		{
			name:      "metrics listener fails during startup",
			steps:     []step{{to: StateStarting}, {crash: lost}},
			wantState: StateCrashed,
			wantErr:   lost,
			wantSteps: []string{"Stopped>Starting", "Starting>Crashed"},
		},
		{
			name: "restart after a crash",
			steps: []step{
				{to: StateStarting}, {to: StateRunning}, {crash: lost},
				{to: StateStarting}, {to: StateRunning}, {to: StateStopped},
			},
			wantState: StateStopped,
			wantSteps: []string{
				"Stopped>Starting", "Starting>Running", "Running>Crashed",
				"Crashed>Starting", "Starting>Running", "Running>Stopped",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stateRecorder{}
			l := NewLifecycle(&mockLogger{}, rec)

			for i, s := range tt.steps {
				var err error
				if s.crash != nil {
					err = l.Crash(s.crash)
				} else {
					err = l.TransitionTo(s.to, "test")
				}
				if err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
			}

			if l.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", l.State(), tt.wantState)
			}
			if !errors.Is(l.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", l.Err(), tt.wantErr)
			}
			if !isClosed(l.Done()) {
				t.Error("Done() open after the run ended")
			}

			got := rec.Steps()
			if len(got) != len(tt.wantSteps) {
				t.Fatalf("steps = %v, want %v", got, tt.wantSteps)
			}
			for i := range got {
				if got[i] != tt.wantSteps[i] {
					t.Errorf("step %d = %s, want %s", i, got[i], tt.wantSteps[i])
				}
			}
		})
	}
}

func TestLifecycle_RejectedTransitions(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		wantErr error
	}{
		{StateStopped, StateRunning, domain.ErrNotRunning},
		{StateStopped, StateStopping, domain.ErrNotRunning},
		{StateCrashed, StateStopped, domain.ErrNotRunning},
		{StateStarting, StateStopped, domain.ErrAlreadyRunning},
		{StateRunning, StateStarting, domain.ErrAlreadyRunning},
		{StateStopping, StateRunning, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+">"+tt.to.String(), func(t *testing.T) {
			rec := &stateRecorder{}
			l := NewLifecycle(&mockLogger{}, rec)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); !errors.Is(err, tt.wantErr) {
				t.Errorf("TransitionTo() = %v, want %v", err, tt.wantErr)
			}
			if l.State() != tt.from {
				t.Errorf("state moved to %v", l.State())
			}
			if steps := rec.Steps(); len(steps) != 0 {
				t.Errorf("rejected transition emitted %v", steps)
			}
		})
	}
}

func TestLifecycle_DoneAndErr(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if !isClosed(l.Done()) {
		t.Fatal("Done() should be closed before the first start")
	}
	if !l.CanStart() || l.CanStop() {
		t.Fatal("idle lifecycle should allow Start but not Stop")
	}

	if err := l.TransitionTo(StateStarting, "start"); err != nil {
		t.Fatalf("TransitionTo(Starting) = %v", err)
	}
	done := l.Done()
	if isClosed(done) {
		t.Fatal("Done() closed while starting")
	}
	if l.CanStart() || !l.CanStop() {
		t.Fatal("starting lifecycle should allow Stop but not Start")
	}

	crash := errors.New("device unplugged")
	if err := l.Crash(crash); err != nil {
		t.Fatalf("Crash() = %v", err)
	}
	if !isClosed(done) {
		t.Fatal("Done() not closed after crash")
	}
	if !errors.Is(l.Err(), crash) {
		t.Errorf("Err() = %v, want %v", l.Err(), crash)
	}

	// A new run clears the previous error and gets a fresh channel.
	if err := l.TransitionTo(StateStarting, "restart"); err != nil {
		t.Fatalf("TransitionTo(Starting) after crash = %v", err)
	}
	if l.Err() != nil {
		t.Errorf("Err() = %v after restart, want nil", l.Err())
	}
	if isClosed(l.Done()) {
		t.Error("Done() of the new run is already closed")
	}
}

func TestLifecycle_CrashOnlyWhileActive(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if err := l.Crash(errors.New("late")); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("Crash() while stopped = %v, want ErrNotRunning", err)
	}
	if l.Err() != nil {
		t.Errorf("Err() = %v, want nil", l.Err())
	}
}

func TestLifecycle_CancelAndWait(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.Cancel() // no cancel func yet

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.AddWorker()
	go func() {
		defer l.WorkerDone()
		<-ctx.Done()
	}()

	l.Cancel()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_WaitTimesOut(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.AddWorker()
	defer l.WorkerDone()

	if err := l.WaitWithTimeout(10 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
}

func TestLifecycle_ConcurrentStarts(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TransitionTo(StateStarting, "race") == nil {
				wins.Add(1)
			}
			_ = l.State()
			_ = l.CanStop()
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d goroutines started the run, want 1", wins.Load())
	}
}
