// Command nm runs the name server: the registry, router, and ACL/user
// store that clients talk to and that storage servers register with.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/cmn/metrics"
	"github.com/wordstore/wordstore/cmn/nlog"
	"github.com/wordstore/wordstore/nm"
)

func main() {
	confPath := flag.String("config", "", "path to NM JSON config file")
	flag.Parse()
	nlog.InitFlags(flag.CommandLine)

	cfg, err := config.LoadNM(*confPath)
	if err != nil {
		nlog.Errorf("nm: load config: %v", err)
		os.Exit(1)
	}
	nlog.SetLogDirRole(cfg.LogDir, "nm")

	store, err := nm.OpenMetaStore(filepath.Join(cfg.RegistryDir, "nm_meta.db"))
	if err != nil {
		nlog.Errorf("nm: open metastore: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	users := nm.LoadUserRegistry(filepath.Join(cfg.RegistryDir, "users.txt"))
	tracker := metrics.NewTracker("nm")
	metrics.Serve(cfg.MetricsPort)

	srv := nm.NewServer(cfg, store, users, tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nlog.Infof("nm: listening on :%d", cfg.Port)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		nlog.Errorf("nm: exited: %v", err)
		os.Exit(1)
	}
}
