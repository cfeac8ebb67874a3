// Package core describes the storage engine's MVCC contract,
// consumed but not implemented here: the underlying transaction layer,
// its snapshots, and its entry scanners are external collaborators.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"context"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// ColumnFamily names the physically separate keyspaces MVCC data is split
// across. "lock" is never scanned by a backup: a consistent-ts read can
// only observe committed versions and uncommitted locks surface as a
// KvError instead.
type ColumnFamily string

const (
	CfDefault ColumnFamily = "default"
	CfWrite   ColumnFamily = "write"
	CfLock    ColumnFamily = "lock"
)

// Entry is a single MVCC record yielded by a Scanner, in ascending key order
// within one shard.
type Entry struct {
	CF       ColumnFamily
	KeyEnc   []byte
	CommitTS uint64
	Value    []byte
}

// ReadCtx identifies the region, its current epoch, and the leader peer a
// snapshot read is scoped to.
type ReadCtx struct {
	RegionID   uint64
	Epoch      Epoch
	LeaderPeer Peer
}

// Epoch and Peer mirror core/meta's region descriptor fields; duplicated
// here (rather than imported) because this package describes the engine's
// view of them, which must not depend on the registry package.
type Epoch struct {
	Version uint64
	ConfVer uint64
}

type Peer struct {
	StoreID uint64
	PeerID  uint64
}

// Statistics are cumulative read counters taken from a Scanner once it is
// drained.
type Statistics struct {
	KeysScanned  int64
	BytesScanned int64
}

func (s *Statistics) Add(o Statistics) {
	s.KeysScanned += o.KeysScanned
	s.BytesScanned += o.BytesScanned
}

// Snapshot is a point-in-time, isolation-consistent view of the engine,
// scoped to one region's read context.
type Snapshot interface {
	// EntryScanner opens an MVCC entry scanner bounded by [start, end), at
	// the given backup timestamp, under snapshot-isolation, with caching
	// optionally disabled.
	EntryScanner(start, end cos.Bound, backupTS uint64, fillCache bool) (Scanner, error)
}

// Scanner drains MVCC entries in ascending key order.
type Scanner interface {
	// ScanEntries fills batch from index 0 with up to len(batch) entries and
	// returns the number drained; an empty return with a nil error signals
	// end of range.
	ScanEntries(batch []Entry) (n int, err error)
	TakeStatistics() Statistics
	Close() error
}

// Engine is the storage engine handle: read-only and shared across workers;
// each worker obtains an independent snapshot.
type Engine interface {
	Snapshot(ctx context.Context, rc ReadCtx) (Snapshot, error)
}
