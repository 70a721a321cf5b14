package session

import "sync"

// Scope is the liveness handle of a component that starts session
// operations, such as a form or a CLI command. The operation's effect on
// the session always applies; the component's own follow-up runs only while
// the scope is still mounted.
type Scope struct {
	mu      sync.Mutex
	mounted bool
	wg      sync.WaitGroup
}

// NewScope returns a mounted scope.
func NewScope() *Scope {
	return &Scope{mounted: true}
}

// Go runs op in a new goroutine and passes its error to then, unless the
// scope was unmounted meanwhile. then may be nil.
func (s *Scope) Go(op func() error, then func(error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := op()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.mounted && then != nil {
			then(err)
		}
	}()
}

// Unmount stops pending follow-ups from running.
func (s *Scope) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
}

// Mounted reports whether the scope is still mounted.
func (s *Scope) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Wait blocks until every operation started with Go has finished.
func (s *Scope) Wait() {
	s.wg.Wait()
}
