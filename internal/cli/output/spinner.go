package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

// Spinner displays a progress animation until stopped.
type Spinner struct {
	w        io.Writer
	message  string
	frames   []string
	interval time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner showing message.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
	}
}

// Start starts the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.loop(s.done, s.stopped)
}

func (s *Spinner) loop(done, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// halt stops the animation goroutine and reports whether it was running.
func (s *Spinner) halt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	close(s.done)
	<-s.stopped
	return true
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	if s.halt() {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.halt()
	fmt.Fprintf(s.w, "\r\033[K✓ %s\n", message)
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.halt()
	fmt.Fprintf(s.w, "\r\033[K✗ %s\n", message)
}

// FollowSession returns a session subscriber that spins while the session
// is authenticating and reports how the attempt settled.
func (s *Spinner) FollowSession() func(domain.Transition) {
	return func(t domain.Transition) {
		switch t.To.Kind {
		case domain.KindAuthenticating:
			s.Start()
		case domain.KindAuthenticated:
			if u := t.To.CurrentUser(); u != nil {
				s.Success("signed in as " + u.Email)
			}
		case domain.KindError:
			s.Fail(t.To.Err.Error())
		case domain.KindAnonymous:
			s.Stop()
		}
	}
}
