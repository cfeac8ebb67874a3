// Package backup implements the per-node backup endpoint: discovery of
// locally-led shards, concurrent per-shard MVCC snapshot scans, SST
// construction and upload, and response aggregation.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import (
	"fmt"

	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/core/meta"
)

// Request is the inbound, wire-level backup request. Empty StartKey/EndKey
// mean unbounded below/above; StartTS == EndTS denotes a point-in-time
// (full) backup.
type Request struct {
	StartKey []byte
	EndKey   []byte
	StartTS  uint64
	EndTS    uint64
	SinkURI  string
}

func (r *Request) IsFullBackup() bool { return r.StartTS == r.EndTS }

func (r *Request) String() string {
	return fmt.Sprintf("backup{start=%x end=%x start_ts=%d end_ts=%d sink=%s}",
		r.StartKey, r.EndKey, r.StartTS, r.EndTS, r.SinkURI)
}

// BackupRange is one shard work item: a region this store leads, clipped
// to the intersection of the request range and the region's own range.
type BackupRange struct {
	Region       *meta.Region
	LeaderPeer   meta.Peer
	ClippedStart cos.Bound
	ClippedEnd   cos.Bound
}

// StartKeyRaw and EndKeyRaw decode the clipped, encoded bounds back to the
// raw key space for response reporting.
func (b *BackupRange) StartKeyRaw() []byte {
	if b.ClippedStart.Kind != cos.Exact {
		return nil
	}
	raw, err := core.DecodeKey(b.ClippedStart.Key)
	if err != nil {
		return nil
	}
	return raw
}

func (b *BackupRange) EndKeyRaw() []byte {
	if b.ClippedEnd.Kind != cos.Exact {
		return nil
	}
	raw, err := core.DecodeKey(b.ClippedEnd.Key)
	if err != nil {
		return nil
	}
	return raw
}

func (b *BackupRange) Name(storeID uint64) string {
	return fmt.Sprintf("%d_%d_%d", storeID, b.Region.ID, b.Region.Epoch.Version)
}

// FileDescriptor describes one uploaded SST.
type FileDescriptor struct {
	Name         string
	CF           core.ColumnFamily
	SHA256       string
	Size         int64
	CRC32        uint32
	StartKeyRaw  []byte
	EndKeyRaw    []byte
	StartVersion uint64
	EndVersion   uint64
}

// Response is emitted once per shard.
type Response struct {
	StartKeyRaw []byte
	EndKeyRaw   []byte
	Files       []FileDescriptor
	Err         error // *cos.RegionError | *cos.KvError | *cos.OtherError
}
