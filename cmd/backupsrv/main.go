// Package main is the backup coordinator's standalone entrypoint: loads
// configuration, wires an engine and region registry, and serves backup
// requests until signaled to stop.
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

	"github.com/coreshard/kvbackup/backup"
	"github.com/coreshard/kvbackup/cmn"
	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/cmn/nlog"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/core/meta"
)

var (
	configPath string
	storeID    uint64
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to backup coordinator JSON config")
	flag.Uint64Var(&storeID, "store-id", 1, "this node's store id")
}

func main() {
	flag.Parse()
	installSignalHandler()

	cfg := cmn.DefaultConfig()
	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			nlog.Errorf("backupsrv: read config %s: %v", configPath, err)
			os.Exit(1)
		}
		if err := cfg.Unmarshal(b); err != nil {
			nlog.Errorf("backupsrv: parse config %s: %v", configPath, err)
			os.Exit(1)
		}
	}

	ep := backup.NewEndpoint(cfg, noEngine{}, noRegistry{}, storeID)
	nlog.Infof("backupsrv: ready (store_id=%d concurrency=%d)", storeID, cfg.Concurrency)

	// The request transport is out of scope. This blocks so the process stays up for
	// whatever transport a deployment wires in front of ep.Handle.
	_ = ep
	select {}
}

// noEngine/noRegistry satisfy core.Engine and meta.Registry so this binary
// links standalone; a real deployment replaces both with the store's actual
// transaction layer and partition map.
type noEngine struct{}

func (noEngine) Snapshot(context.Context, core.ReadCtx) (core.Snapshot, error) {
	return nil, cos.NewRegionError(cos.RegionErrUnknown, "no engine wired")
}

type noRegistry struct{}

func (noRegistry) SeekRegion([]byte, func(meta.RegionInfo) bool) error { return nil }

func installSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		nlog.Infof("backupsrv: shutting down")
		os.Exit(0)
	}()
}
