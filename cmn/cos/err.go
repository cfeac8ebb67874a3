// Package cos provides common low-level types and utilities shared by the
// backup coordinator: error taxonomy, checksums, and key-space bounds.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"sync"
	ratomic "sync/atomic"

	"github.com/coreshard/kvbackup/cmn/debug"
)

// Errs aggregates up to maxErrs distinct errors, deduped by message, and
// joins them into one error on demand. Used by the backup orchestrator to
// collect the per-shard errors of one request into a single summary.
type Errs struct {
	errs []error
	cnt  int64
	mu   sync.Mutex
}

const maxErrs = 4

func (e *Errs) Add(err error) {
	debug.Assert(err != nil)
	e.mu.Lock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...)
		e.mu.Unlock()
	}
	return
}

// Three error kinds: region error | kv error | other (sink) error. Each is
// a distinct Go type so the orchestrator can type-switch on it when filling
// in BackupResponse.Error without string-matching.

type (
	// RegionError classifies a failure to acquire a consistent snapshot:
	// the leader moved, the epoch is stale, or the region is gone.
	RegionError struct {
		Kind RegionErrKind
		Msg  string
	}
	RegionErrKind int

	// KvError classifies a failure during the MVCC entry scan itself.
	KvError struct {
		Kind      KvErrKind
		Key       []byte
		Primary   []byte
		StartTS   uint64
		Underlying error
	}
	KvErrKind int

	// OtherError wraps everything else visible to the caller as
	// response.error.other, most commonly a sink-side failure
	// (already-exists, I/O, auth).
	OtherError struct {
		Msg string
	}
)

const (
	RegionErrNotLeader RegionErrKind = iota
	RegionErrEpochNotMatch
	RegionErrNotFound
	RegionErrUnknown
)

const (
	KvErrLocked KvErrKind = iota
	KvErrIO
)

func (e *RegionError) Error() string {
	return fmt.Sprintf("region error (%s): %s", e.Kind, e.Msg)
}

func (k RegionErrKind) String() string {
	switch k {
	case RegionErrNotLeader:
		return "not-leader"
	case RegionErrEpochNotMatch:
		return "epoch-not-match"
	case RegionErrNotFound:
		return "region-not-found"
	default:
		return "unknown"
	}
}

func NewRegionError(kind RegionErrKind, format string, a ...any) *RegionError {
	return &RegionError{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

func (e *KvError) Error() string {
	if e.Kind == KvErrLocked {
		return fmt.Sprintf("kv error: locked key %x by primary %x at start_ts=%d", e.Key, e.Primary, e.StartTS)
	}
	return fmt.Sprintf("kv error: %v", e.Underlying)
}

func (e *KvError) Unwrap() error { return e.Underlying }

func NewKvErrorLocked(key, primary []byte, startTS uint64) *KvError {
	return &KvError{Kind: KvErrLocked, Key: key, Primary: primary, StartTS: startTS}
}

func NewKvErrorIO(err error) *KvError {
	return &KvError{Kind: KvErrIO, Underlying: err}
}

func (e *OtherError) Error() string { return e.Msg }

func NewOtherError(format string, a ...any) *OtherError {
	return &OtherError{Msg: fmt.Sprintf(format, a...)}
}

// ErrAlreadyExists is returned by a Sink when the destination path is
// already occupied; sinks MUST refuse to silently overwrite.
var ErrAlreadyExists = errors.New("sink: destination already exists")

func IsErrAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
