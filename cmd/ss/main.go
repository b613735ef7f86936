// Command ss runs a storage server: dials the name server to register,
// then serves direct READ/STREAM/WRITE/ETIRW client sessions.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/cmn/metrics"
	"github.com/wordstore/wordstore/cmn/nlog"
	"github.com/wordstore/wordstore/ss"
)

func main() {
	confPath := flag.String("config", "", "path to SS JSON config file")
	flag.Parse()
	nlog.InitFlags(flag.CommandLine)

	cfg, err := config.LoadSS(*confPath)
	if err != nil {
		nlog.Errorf("ss: load config: %v", err)
		os.Exit(1)
	}
	nlog.SetLogDirRole(cfg.LogDir, "ss")

	tracker := metrics.NewTracker("ss")
	metrics.Serve(cfg.MetricsPort)

	srv := ss.NewServer(cfg, tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nlog.Infof("ss: serving clients on :%d, nm at %s:%d", cfg.ClientPort, cfg.NMHost, cfg.NMPort)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		nlog.Errorf("ss: exited: %v", err)
		os.Exit(1)
	}
}
