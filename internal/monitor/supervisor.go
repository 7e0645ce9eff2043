package monitor

import (
	"context"
	"sync"
)

type runner interface {
	Run(ctx context.Context)
}

// Supervisor owns the engine goroutine's lifecycle. Restart backs the
// admin endpoint: cancel the running loop, wait for it to drain, start a
// fresh one.
type Supervisor struct {
	engine runner

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSupervisor(engine *Engine) *Supervisor {
	return &Supervisor{engine: engine}
}

// Start launches the loop. Calling it while running is a no-op.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.engine.Run(ctx)
	}()
}

// Stop cancels the loop and blocks until it has exited.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Supervisor) Restart() {
	s.Stop()
	s.Start()
}

// Running reports whether an engine goroutine is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
