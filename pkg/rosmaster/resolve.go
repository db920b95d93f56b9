package rosmaster

import (
	"context"

	"go.uber.org/zap"

	"github.com/ncbdrck/ros-rl/pkg/config"
)

// Resolve picks exactly one of four actions from the environment options,
// evaluated in fixed priority order regardless of how many flags are set:
//
//  1. default_port: always launch a new master at the well-known port.
//  2. new_roscore: launch a new master at the given port (default if unset).
//  3. roscore_port set: attach to the already-running master there; the
//     client state is rebound, no process is started.
//  4. otherwise: probe the implicit default; if nothing answers, launch a
//     new master there with a diagnostic notice.
//
// The returned endpoint is nil when an already-running default master was
// found in case 4 and no port was resolved. At most one process is started
// per call.
func (m *Manager) Resolve(ctx context.Context, opts config.EnvOptions) (*Endpoint, error) {
	switch {
	case opts.DefaultPort:
		port, err := m.Launch(ctx, DefaultPort, false, true)
		if err != nil {
			return nil, err
		}
		ep := NewEndpoint(m.cfg.Host, port)
		return &ep, nil

	case opts.NewRoscore:
		port, err := m.Launch(ctx, opts.RoscorePort, true, false)
		if err != nil {
			return nil, err
		}
		ep := NewEndpoint(m.cfg.Host, port)
		return &ep, nil

	case opts.RoscorePort != 0:
		ep := m.Rebind(opts.RoscorePort)
		m.log.Info("attached to running roscore", zap.Int("port", ep.Port))
		return &ep, nil

	default:
		if m.IsRunning() {
			return nil, nil
		}
		m.log.Warn("roscore is not running, launching a new roscore")
		port, err := m.Launch(ctx, 0, true, false)
		if err != nil {
			return nil, err
		}
		ep := NewEndpoint(m.cfg.Host, port)
		return &ep, nil
	}
}
