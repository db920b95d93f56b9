package node

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ncbdrck/ros-rl/pkg/params"
	"github.com/ncbdrck/ros-rl/pkg/rosmaster"
)

// dial is the reachability check used during registration. Test hook.
var dial = func(addr string, timeout time.Duration) error {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	return c.Close()
}

// Options configures node registration.
type Options struct {
	// Anonymous appends a random suffix to the node name so equal base
	// names can coexist.
	Anonymous bool
	// ProbeTimeout bounds the registration reachability check.
	ProbeTimeout time.Duration
}

// Node is a process registered with the master. It carries the registered
// name, the master endpoint it registered against, and a local parameter
// cache.
type Node struct {
	name   string
	master rosmaster.Endpoint
	params *params.Store
	log    *zap.Logger
}

// Register registers the calling process under name against the master
// currently bound in state. When no endpoint has been bound, the implicit
// default is used. Returns a ConnectivityError when the master cannot be
// reached.
func Register(ctx context.Context, state *rosmaster.State, name string, o Options) (*Node, error) {
	master, ok := state.Current()
	if !ok {
		master = rosmaster.NewEndpoint("", 0)
	}
	if o.Anonymous {
		name = anonymize(name)
	}
	timeout := o.ProbeTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := dial(master.Addr(), timeout); err != nil {
		return nil, &rosmaster.ConnectivityError{Addr: master.Addr(), Err: err}
	}

	n := &Node{
		name:   name,
		master: master,
		params: params.New(params.Options{}),
		log:    zap.L().With(zap.String("node", name)),
	}
	n.log.Info("node registered", zap.String("master", master.URI()))
	return n, nil
}

// Name returns the registered node name.
func (n *Node) Name() string { return n.name }

// Master returns the endpoint the node registered against.
func (n *Node) Master() rosmaster.Endpoint { return n.master }

// SetParam stores a parameter in the node's cache.
func (n *Node) SetParam(name string, val any) { n.params.Set(name, val) }

// GetParam reads a parameter from the node's cache.
func (n *Node) GetParam(name string) (any, bool) { return n.params.Get(name) }

// HasParam reports whether the parameter exists.
func (n *Node) HasParam(name string) bool { return n.params.Has(name) }

// DeleteParam removes a parameter.
func (n *Node) DeleteParam(name string) bool { return n.params.Delete(name) }

// ParamNames lists parameter names under a namespace.
func (n *Node) ParamNames(ns string) []string { return n.params.Keys(ns) }
