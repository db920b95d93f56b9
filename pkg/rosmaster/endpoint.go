// Package rosmaster manages the lifecycle of the roscore master process an
// environment depends on: launching a new master, probing for a running one,
// and rebinding the process-wide client address.
package rosmaster

import (
	"net"
	"strconv"
)

// DefaultPort is the well-known roscore master port.
const DefaultPort = 11311

// MasterURIEnv is the environment variable client libraries read to locate
// the master.
const MasterURIEnv = "ROS_MASTER_URI"

// Endpoint is a reachable master process. It is resolved once during
// environment construction and never mutated afterwards.
type Endpoint struct {
	Host      string
	Port      int
	IsDefault bool
}

// NewEndpoint builds an Endpoint for the given host and port. An empty host
// defaults to localhost and a zero port to DefaultPort.
func NewEndpoint(host string, port int) Endpoint {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = DefaultPort
	}
	return Endpoint{Host: host, Port: port, IsDefault: port == DefaultPort}
}

// Addr returns the endpoint in host:port form.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URI returns the endpoint as a master URI.
func (e Endpoint) URI() string {
	return "http://" + e.Addr()
}
