package rosmaster

import "fmt"

// LaunchError reports that the master process could not be started or did
// not become reachable in time. Fatal at construction time; there is no
// retry or alternate-port fallback.
type LaunchError struct {
	Port int
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch roscore on port %d: %v", e.Port, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ConnectivityError reports that the resolved master endpoint could not be
// reached. Fatal at construction time.
type ConnectivityError struct {
	Addr string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("master unreachable at %s: %v", e.Addr, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }
