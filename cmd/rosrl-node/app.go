package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ncbdrck/ros-rl/pkg/config"
	"github.com/ncbdrck/ros-rl/pkg/node"
	"github.com/ncbdrck/ros-rl/pkg/observability"
	"github.com/ncbdrck/ros-rl/pkg/rosmaster"
)

// run is the main entry point after CLI parsing. It exercises the master
// negotiation and node registration exactly the way environment
// construction does, and reports the outcome.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("rosrl-node started", zap.String("app", cfg.AppName))
	zap.L().Info("effective configuration", zap.Any("config", cfg))

	ctx := context.Background()
	mgr := rosmaster.New(cfg.Master, rosmaster.DefaultState())

	ep, err := mgr.Resolve(ctx, cfg.Env)
	if err != nil {
		zap.L().Error("failed to resolve master", zap.Error(err))
		return 1
	}
	port := 0
	if ep != nil {
		port = ep.Port
		zap.L().Info("master resolved", zap.String("uri", ep.URI()), zap.Bool("default_port", ep.IsDefault))
	} else {
		zap.L().Info("reusing already-running master at the default port")
	}

	name := node.ResolveName(port)
	n, err := node.Register(ctx, mgr.State(), name, node.Options{
		Anonymous:    true,
		ProbeTimeout: cfg.Master.ProbeTimeout,
	})
	if err != nil {
		zap.L().Error("failed to register node", zap.Error(err))
		return 1
	}

	zap.L().Info("node is up",
		zap.String("node", n.Name()),
		zap.String("master", n.Master().URI()))
	return 0
}
