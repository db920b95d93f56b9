package rosmaster

import (
	"os"
	"sync"
)

// State is the process-wide client addressing: the master endpoint the
// calling process will register against. Rebinds are last-writer-wins across
// environment instances; concurrent construction of environments with
// conflicting port preferences must be serialized by the caller.
type State struct {
	mu  sync.Mutex
	cur *Endpoint
}

func NewState() *State {
	return &State{}
}

var defaultState = NewState()

// DefaultState returns the process-wide client addressing shared by all
// environments that do not supply their own.
func DefaultState() *State {
	return defaultState
}

// Rebind points the client configuration at the given endpoint. It is a
// purely local addressing change: it does not start or stop any process and
// is safe to call before anything listens at the address. The master URI is
// also exported for child tooling that reads ROS_MASTER_URI.
func (s *State) Rebind(ep Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := ep
	s.cur = &cp
	_ = os.Setenv(MasterURIEnv, ep.URI())
}

// Current returns the currently bound endpoint, if any.
func (s *State) Current() (Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return Endpoint{}, false
	}
	return *s.cur, true
}
