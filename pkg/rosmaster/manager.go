package rosmaster

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ncbdrck/ros-rl/pkg/config"
)

// Manager decides whether to launch a new master, reuse a running one, or
// attach to a caller-specified port, and keeps the shared client addressing
// in State consistent with that decision.
type Manager struct {
	cfg   config.MasterConfig
	state *State
	run   Runner
	log   *zap.Logger

	// probe reports whether something accepts connections at addr.
	// Overridable in tests.
	probe func(addr string, timeout time.Duration) bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithRunner replaces the process-control collaborator.
func WithRunner(r Runner) Option {
	return func(m *Manager) { m.run = r }
}

// WithProbe replaces the reachability probe.
func WithProbe(p func(addr string, timeout time.Duration) bool) Option {
	return func(m *Manager) { m.probe = p }
}

// WithLogger replaces the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func New(cfg config.MasterConfig, state *State, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg,
		state: state,
		run:   execRunner{},
		log:   zap.L(),
		probe: dialProbe,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func dialProbe(addr string, timeout time.Duration) bool {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Launch starts a new master bound to port (DefaultPort when 0), waits for
// it to become reachable, then unconditionally rebinds the client state to
// the new endpoint and returns the resolved port. Exactly one process is
// started per invocation; callers must not launch twice for the same
// logical environment instance.
func (m *Manager) Launch(ctx context.Context, port int, forceNewMaster, useDefaultPort bool) (int, error) {
	if useDefaultPort || port == 0 {
		port = DefaultPort
	}
	ep := NewEndpoint(m.cfg.Host, port)

	m.log.Info("launching roscore",
		zap.String("bin", m.cfg.Bin),
		zap.Int("port", port),
		zap.Bool("force_new_master", forceNewMaster),
		zap.Bool("default_port", useDefaultPort))

	proc, err := m.run.Start(ctx, m.cfg.Bin, "-p", strconv.Itoa(port))
	if err != nil {
		return 0, &LaunchError{Port: port, Err: err}
	}

	if err := m.awaitReachable(ctx, ep); err != nil {
		return 0, &LaunchError{Port: port, Err: err}
	}

	m.state.Rebind(ep)
	m.log.Info("roscore is up", zap.Int("port", port), zap.Int("pid", proc.PID()))
	return port, nil
}

// awaitReachable polls the endpoint until it accepts connections or the
// start timeout expires. The original framework blocked without bound here;
// the timeout keeps a wedged master from stalling construction forever.
func (m *Manager) awaitReachable(ctx context.Context, ep Endpoint) error {
	deadline := time.Now().Add(m.cfg.StartTimeout)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		if m.probe(ep.Addr(), m.cfg.ProbeTimeout) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("not reachable after %v", m.cfg.StartTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// IsRunning probes the implicit default endpoint without side effects.
func (m *Manager) IsRunning() bool {
	return m.probe(NewEndpoint(m.cfg.Host, DefaultPort).Addr(), m.cfg.ProbeTimeout)
}

// Rebind points the shared client state at the given port without touching
// any running process.
func (m *Manager) Rebind(port int) Endpoint {
	ep := NewEndpoint(m.cfg.Host, port)
	m.state.Rebind(ep)
	return ep
}

// State returns the shared client addressing the manager rebinds.
func (m *Manager) State() *State {
	return m.state
}
