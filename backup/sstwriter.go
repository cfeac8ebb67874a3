// Package backup implements the per-node backup endpoint.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/sink"
)

// cfBuf accumulates one column family's entries as a length-prefixed record
// stream (key_enc, commit_ts, value), the simplest sorted-string encoding
// that preserves the scanner's ascending key order without a real LSM
// writer's block index, adequate since a shard's SST is read back only as
// a whole object, never point-looked-up, by this system's consumers.
type cfBuf struct {
	buf []byte
	n   int
}

// sstWriter builds the SST(s) for one shard: one cfBuf per column family
// touched, accumulating a cos.CksumHashSize while streaming to the
// destination sink. Lock-CF entries are never written: no lock is visible
// at a consistent backup_ts.
type sstWriter struct {
	name             string
	shortValueMaxLen int
	cfs              map[core.ColumnFamily]*cfBuf
}

func newSSTWriter(name string, shortValueMaxLen int) *sstWriter {
	return &sstWriter{
		name:             name,
		shortValueMaxLen: shortValueMaxLen,
		cfs:              make(map[core.ColumnFamily]*cfBuf, 2),
	}
}

// Write appends a batch of scanned entries to their respective column
// family buffers, routing entries based on the engine's own CF tag (the
// real engine decides default-vs-write placement using SHORT_VALUE_MAX_LEN
// at write time; the backup writer only replays that placement).
func (w *sstWriter) Write(entries []core.Entry) error {
	for i := range entries {
		e := &entries[i]
		cf := w.cfs[e.CF]
		if cf == nil {
			cf = &cfBuf{}
			w.cfs[e.CF] = cf
		}
		appendEntry(cf, e)
	}
	return nil
}

// appendEntry serializes one entry as [keyLen][key][commitTS][valLen][val],
// all fixed-width integers big-endian.
func appendEntry(cf *cfBuf, e *core.Entry) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(e.KeyEnc)))
	cf.buf = append(cf.buf, hdr[:4]...)
	cf.buf = append(cf.buf, e.KeyEnc...)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], e.CommitTS)
	cf.buf = append(cf.buf, ts[:]...)

	binary.BigEndian.PutUint32(hdr[:4], uint32(len(e.Value)))
	cf.buf = append(cf.buf, hdr[:4]...)
	cf.buf = append(cf.buf, e.Value...)
	cf.n++
}

// Save uploads every non-empty column family's buffer to dst, returning one
// FileDescriptor per file actually written.
// Every descriptor reports the shard's own clipped bounds and the request's
// backup timestamp as both start and end version.
func (w *sstWriter) Save(ctx context.Context, dst sink.Sink, br *BackupRange, backupTS uint64) ([]FileDescriptor, error) {
	startRaw, endRaw := br.StartKeyRaw(), br.EndKeyRaw()

	var files []FileDescriptor
	// deterministic order: "default" before "write" regardless of map iteration
	for _, cfName := range []core.ColumnFamily{core.CfDefault, core.CfWrite} {
		cf := w.cfs[cfName]
		if cf == nil || cf.n == 0 {
			continue
		}
		fd, err := w.saveCF(ctx, dst, cfName, cf, startRaw, endRaw, backupTS)
		if err != nil {
			return nil, err
		}
		files = append(files, fd)
	}
	return files, nil
}

func (w *sstWriter) saveCF(ctx context.Context, dst sink.Sink, cfName core.ColumnFamily, cf *cfBuf, startRaw, endRaw []byte, backupTS uint64) (FileDescriptor, error) {
	fname := w.name + "_" + string(cfName) + ".sst"

	wc, err := dst.Create(ctx, fname)
	if err != nil {
		return FileDescriptor{}, cos.NewOtherError("sink create %s: %v", fname, err)
	}

	var hasher cos.CksumHashSize
	hasher.Init()
	mw := io.MultiWriter(wc, &hasher)
	n, err := mw.Write(cf.buf)
	if err != nil {
		wc.Close()
		return FileDescriptor{}, cos.NewOtherError("upload %s: %v", fname, err)
	}
	// n < len(cf.buf) without an error would mean a writer silently dropped
	// bytes; catch it via the hasher's own running count (and carry the
	// xxhash along for whoever investigates) before the sink is ever closed.
	if n != len(cf.buf) || hasher.Size != int64(len(cf.buf)) {
		wc.Close()
		return FileDescriptor{}, cos.NewOtherError("upload %s: short write, hashed %d of %d bytes (xxhash=%x)",
			fname, hasher.Size, len(cf.buf), hasher.XXHash64())
	}
	if err := wc.Close(); err != nil {
		return FileDescriptor{}, cos.NewOtherError("sink close %s: %v", fname, err)
	}

	sha256Hex, crc32V := hasher.Finalize()
	return FileDescriptor{
		Name:         fname,
		CF:           cfName,
		SHA256:       sha256Hex,
		Size:         hasher.Size,
		CRC32:        crc32V,
		StartKeyRaw:  startRaw,
		EndKeyRaw:    endRaw,
		StartVersion: backupTS,
		EndVersion:   backupTS,
	}, nil
}
