package backup

import (
	"context"
	"io"
	"sync"

	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/core/meta"
)

// fakeRegistry is an in-memory partition map holding exactly the regions it
// was built with, in the order given (see standardRegistry for the shared
// map with gaps that the range-intersection cases use).
type fakeRegistry struct {
	regions []*meta.Region
}

func newFakeRegistry(regions ...*meta.Region) *fakeRegistry {
	return &fakeRegistry{regions: regions}
}

// region constructs a meta.Region from raw start/end keys (empty means the
// corresponding infinite sentinel), encoding them the same way the request
// path does.
func region(id uint64, startRaw, endRaw string, role meta.Role, storeID uint64) *meta.Region {
	var start, end []byte
	if startRaw != "" {
		start = core.EncodeKey([]byte(startRaw))
	}
	if endRaw != "" {
		end = core.EncodeKey([]byte(endRaw))
	}
	return &meta.Region{
		ID:              id,
		Epoch:           meta.Epoch{Version: 1, ConfVer: 1},
		StartKeyEnc:     start,
		EndKeyEnc:       end,
		Peers:           []meta.Peer{{StoreID: storeID, PeerID: id * 10}},
		RoleOnThisStore: role,
	}
}

func (r *fakeRegistry) SeekRegion(fromEncoded []byte, fn func(meta.RegionInfo) bool) error {
	for _, reg := range r.regions {
		// a region is a candidate once its end strictly exceeds fromEncoded
		end := reg.EndBound()
		if end.Kind == cos.Exact && len(fromEncoded) > 0 && bytesLTE(end.Key, fromEncoded) {
			continue
		}
		if !fn(meta.RegionInfo{Region: reg, Role: reg.RoleOnThisStore}) {
			return nil
		}
	}
	return nil
}

func bytesLTE(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return true
		}
		if a[i] > b[i] {
			return false
		}
	}
	return len(a) <= len(b)
}

// fakeEngine drives a deterministic in-memory key space: a set of
// committed (key, commit_ts, value) triples plus, optionally, a single
// outstanding lock, so tests can exercise the happy path alongside the
// not-leader and locked-key failure modes.
type fakeEngine struct {
	mu         sync.Mutex
	committed  []fakeCommit
	lockedKey  []byte
	lockedTS   uint64
	notLeader  bool
	shortLimit int
}

type fakeCommit struct {
	key      []byte // raw
	commitTS uint64
	value    []byte
}

func newFakeEngine(shortLimit int) *fakeEngine {
	return &fakeEngine{shortLimit: shortLimit}
}

func (e *fakeEngine) Put(rawKey string, commitTS uint64, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.committed = append(e.committed, fakeCommit{key: []byte(rawKey), commitTS: commitTS, value: value})
}

// TriggerNotLeader makes every subsequent Snapshot call fail as a
// not-leader region error, flipping the fake engine's leadership flag
// mid-test.
func (e *fakeEngine) TriggerNotLeader() {
	e.mu.Lock()
	e.notLeader = true
	e.mu.Unlock()
}

// Lock installs one outstanding prewrite lock, visible as a KvError to any
// scan whose backup_ts is >= startTS.
func (e *fakeEngine) Lock(rawKey string, startTS uint64) {
	e.mu.Lock()
	e.lockedKey = []byte(rawKey)
	e.lockedTS = startTS
	e.mu.Unlock()
}

func (e *fakeEngine) Snapshot(_ context.Context, rc core.ReadCtx) (core.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.notLeader {
		return nil, cos.NewRegionError(cos.RegionErrNotLeader, "region %d: not leader", rc.RegionID)
	}
	return &fakeSnapshot{engine: e}, nil
}

type fakeSnapshot struct {
	engine *fakeEngine
}

func (s *fakeSnapshot) EntryScanner(start, end cos.Bound, backupTS uint64, _ bool) (core.Scanner, error) {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lockedKey != nil && e.lockedTS <= backupTS && inRange(e.lockedKey, start, end) {
		return nil, cos.NewKvErrorLocked(e.lockedKey, e.lockedKey, e.lockedTS)
	}

	var entries []core.Entry
	for _, c := range e.committed {
		if c.commitTS > backupTS || !inRange(c.key, start, end) {
			continue
		}
		cf := core.CfWrite
		if len(c.value) > e.shortLimit {
			cf = core.CfDefault
		}
		entries = append(entries, core.Entry{
			CF:       cf,
			KeyEnc:   core.EncodeKey(c.key),
			CommitTS: c.commitTS,
			Value:    c.value,
		})
	}
	return &fakeScanner{entries: entries}, nil
}

func inRange(rawKey []byte, start, end cos.Bound) bool {
	enc := cos.NewBound(core.EncodeKey(rawKey), cos.Exact)
	return !enc.Less(start) && enc.Less(end)
}

type fakeScanner struct {
	entries []core.Entry
	pos     int
	stats   core.Statistics
}

func (s *fakeScanner) ScanEntries(batch []core.Entry) (int, error) {
	n := copy(batch, s.entries[s.pos:])
	s.pos += n
	s.stats.KeysScanned += int64(n)
	for _, e := range batch[:n] {
		s.stats.BytesScanned += int64(len(e.Value))
	}
	return n, nil
}

func (s *fakeScanner) TakeStatistics() core.Statistics { return s.stats }
func (s *fakeScanner) Close() error                    { return nil }

// fakeSink uploads into memory, keyed by object name, refusing overwrite
// exactly like the real backends.
type fakeSink struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeSink() *fakeSink { return &fakeSink{objects: make(map[string][]byte)} }

func (s *fakeSink) URI() string { return "fake://" }

func (s *fakeSink) Create(_ context.Context, name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; ok {
		return nil, cos.ErrAlreadyExists
	}
	return &fakeWriter{sink: s, name: name}, nil
}

type fakeWriter struct {
	sink *fakeSink
	name string
	buf  []byte
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *fakeWriter) Close() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.objects[w.name] = w.buf
	return nil
}
