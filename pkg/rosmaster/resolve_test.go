package rosmaster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ncbdrck/ros-rl/pkg/config"
)

type fakeProcess struct{ pid int }

func (p fakeProcess) PID() int { return p.pid }

type fakeRunner struct {
	starts []int // ports extracted from the -p argument
	err    error
}

func (r *fakeRunner) Start(_ context.Context, _ string, args ...string) (Process, error) {
	if r.err != nil {
		return nil, r.err
	}
	port := 0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-p" {
			for _, ch := range args[i+1] {
				port = port*10 + int(ch-'0')
			}
		}
	}
	r.starts = append(r.starts, port)
	return fakeProcess{pid: 4242}, nil
}

func testManager(t *testing.T, reachable bool) (*Manager, *fakeRunner) {
	t.Helper()
	cfg := config.MasterConfig{
		Bin:          "roscore",
		Host:         "localhost",
		StartTimeout: time.Second,
		ProbeTimeout: 10 * time.Millisecond,
	}
	r := &fakeRunner{}
	m := New(cfg, NewState())
	m.run = r
	m.probe = func(string, time.Duration) bool { return reachable }
	return m, r
}

func TestResolveDefaultPortDominates(t *testing.T) {
	m, r := testManager(t, true)
	opts := config.EnvOptions{DefaultPort: true, NewRoscore: true, RoscorePort: 11390}

	ep, err := m.Resolve(context.Background(), opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep == nil || ep.Port != DefaultPort || !ep.IsDefault {
		t.Fatalf("endpoint = %+v, want default port", ep)
	}
	if len(r.starts) != 1 || r.starts[0] != DefaultPort {
		t.Fatalf("starts = %v, want exactly one launch at %d", r.starts, DefaultPort)
	}
	if cur, ok := m.State().Current(); !ok || cur.Port != DefaultPort {
		t.Fatalf("state not rebound to default port: %+v ok=%v", cur, ok)
	}
}

func TestResolveNewRoscoreUsesGivenPort(t *testing.T) {
	m, r := testManager(t, true)
	opts := config.EnvOptions{NewRoscore: true, RoscorePort: 11390}

	ep, err := m.Resolve(context.Background(), opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep == nil || ep.Port != 11390 {
		t.Fatalf("endpoint = %+v, want port 11390", ep)
	}
	if len(r.starts) != 1 || r.starts[0] != 11390 {
		t.Fatalf("starts = %v, want one launch at 11390", r.starts)
	}
}

func TestResolveNewRoscoreDefaultsPort(t *testing.T) {
	m, r := testManager(t, true)
	ep, err := m.Resolve(context.Background(), config.EnvOptions{NewRoscore: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep.Port != DefaultPort {
		t.Fatalf("endpoint port = %d, want %d", ep.Port, DefaultPort)
	}
	if len(r.starts) != 1 || r.starts[0] != DefaultPort {
		t.Fatalf("starts = %v", r.starts)
	}
}

func TestResolveAttachDoesNotLaunch(t *testing.T) {
	m, r := testManager(t, true)
	opts := config.EnvOptions{RoscorePort: 11312}

	ep, err := m.Resolve(context.Background(), opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep == nil || ep.Port != 11312 {
		t.Fatalf("endpoint = %+v, want attach at 11312", ep)
	}
	if len(r.starts) != 0 {
		t.Fatalf("starts = %v, want no launches on attach", r.starts)
	}
	if cur, ok := m.State().Current(); !ok || cur.Port != 11312 {
		t.Fatalf("state not rebound on attach: %+v ok=%v", cur, ok)
	}
}

func TestResolveAutoDetectRunning(t *testing.T) {
	m, r := testManager(t, true)
	ep, err := m.Resolve(context.Background(), config.EnvOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep != nil {
		t.Fatalf("endpoint = %+v, want nil when default master already runs", ep)
	}
	if len(r.starts) != 0 {
		t.Fatalf("starts = %v, want none", r.starts)
	}
}

func TestResolveAutoDetectFallbackLaunch(t *testing.T) {
	cfg := config.MasterConfig{
		Bin:          "roscore",
		Host:         "localhost",
		StartTimeout: time.Second,
		ProbeTimeout: 10 * time.Millisecond,
	}
	r := &fakeRunner{}
	m := New(cfg, NewState())
	m.run = r
	// Nothing reachable until a process has been started.
	m.probe = func(string, time.Duration) bool { return len(r.starts) > 0 }

	ep, err := m.Resolve(context.Background(), config.EnvOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep == nil || ep.Port != DefaultPort {
		t.Fatalf("endpoint = %+v, want fallback launch at default", ep)
	}
	if len(r.starts) != 1 {
		t.Fatalf("starts = %v, want exactly one fallback launch", r.starts)
	}
}

func TestLaunchStartFailure(t *testing.T) {
	m, r := testManager(t, true)
	r.err = errors.New("exec: \"roscore\": executable file not found")

	_, err := m.Launch(context.Background(), 11311, true, false)
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LaunchError", err)
	}
	if le.Port != 11311 {
		t.Fatalf("LaunchError port = %d", le.Port)
	}
}

func TestLaunchTimesOutWhenNeverReachable(t *testing.T) {
	cfg := config.MasterConfig{
		Bin:          "roscore",
		Host:         "localhost",
		StartTimeout: 50 * time.Millisecond,
		ProbeTimeout: time.Millisecond,
	}
	m := New(cfg, NewState())
	m.run = &fakeRunner{}
	m.probe = func(string, time.Duration) bool { return false }

	_, err := m.Launch(context.Background(), 0, true, false)
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LaunchError on timeout", err)
	}
}

func TestRebindIsLocalOnly(t *testing.T) {
	m, r := testManager(t, false)
	ep := m.Rebind(11399)
	if ep.Port != 11399 {
		t.Fatalf("rebind endpoint = %+v", ep)
	}
	if len(r.starts) != 0 {
		t.Fatalf("rebind started a process: %v", r.starts)
	}
	cur, ok := m.State().Current()
	if !ok || cur.Port != 11399 {
		t.Fatalf("state after rebind = %+v ok=%v", cur, ok)
	}
}
