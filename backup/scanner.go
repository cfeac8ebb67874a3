// Package backup implements the per-node backup endpoint.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import (
	"context"
	"errors"
	"time"

	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/cmn/nlog"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/sink"
)

// scanResult is what dispatch hands back to the orchestrator's fan-in loop:
// the work item plus either a files+stats success or a classified error.
type scanResult struct {
	br    *BackupRange
	files []FileDescriptor
	stats core.Statistics
	err   error
}

// runShard drives the snapshot-and-scan step followed by the SST build and upload step
// for one shard, entirely on the calling worker goroutine.
func runShard(ctx context.Context, eng core.Engine, dst sink.Sink, storeID uint64, cfg scanConfig, br *BackupRange, backupTS uint64) scanResult {
	rc := core.ReadCtx{
		RegionID: br.Region.ID,
		Epoch:    core.Epoch{Version: br.Region.Epoch.Version, ConfVer: br.Region.Epoch.ConfVer},
		LeaderPeer: core.Peer{
			StoreID: br.LeaderPeer.StoreID,
			PeerID:  br.LeaderPeer.PeerID,
		},
	}

	snap, err := eng.Snapshot(ctx, rc)
	if err != nil {
		nlog.Errorf("backup: snapshot failed for region %d: %v", br.Region.ID, err)
		return scanResult{br: br, err: classifySnapshotErr(err)}
	}

	scanner, err := snap.EntryScanner(br.ClippedStart, br.ClippedEnd, backupTS, false /*fill_cache*/)
	if err != nil {
		nlog.Errorf("backup: entry scanner failed for region %d: %v", br.Region.ID, err)
		return scanResult{br: br, err: classifyScanErr(err)}
	}

	writer := newSSTWriter(br.Name(storeID), cfg.shortValueMaxLen)
	start := time.Now()
	batch := make([]core.Entry, cfg.scanBatchSize)
	for {
		n, serr := scanner.ScanEntries(batch)
		if serr != nil {
			scanner.Close()
			nlog.Errorf("backup: scan entries failed for region %d: %v", br.Region.ID, serr)
			return scanResult{br: br, err: classifyScanErr(serr)}
		}
		if n == 0 {
			break
		}
		if werr := writer.Write(batch[:n]); werr != nil {
			scanner.Close()
			nlog.Errorf("backup: build sst failed for region %d: %v", br.Region.ID, werr)
			return scanResult{br: br, err: cos.NewOtherError("build sst: %v", werr)}
		}
	}
	rangeSeconds.WithLabelValues("scan").Observe(time.Since(start).Seconds())

	stats := scanner.TakeStatistics()
	scanner.Close()

	files, err := writer.Save(ctx, dst, br, backupTS)
	if err != nil {
		nlog.Errorf("backup: save sst failed for region %d: %v", br.Region.ID, err)
		return scanResult{br: br, err: err}
	}
	return scanResult{br: br, files: files, stats: stats}
}

type scanConfig struct {
	scanBatchSize    int
	shortValueMaxLen int
}

// classifySnapshotErr maps a snapshot-acquisition failure to the region
// error taxonomy; anything not already a *cos.RegionError becomes a region
// error of unknown kind.
func classifySnapshotErr(err error) error {
	var re *cos.RegionError
	if errors.As(err, &re) {
		return re
	}
	return cos.NewRegionError(cos.RegionErrUnknown, "%v", err)
}

// classifyScanErr maps a failure opening or draining the entry scanner to
// the kv error taxonomy.
func classifyScanErr(err error) error {
	var ke *cos.KvError
	if errors.As(err, &ke) {
		return ke
	}
	return cos.NewKvErrorIO(err)
}
