// Package backup implements the per-node backup endpoint: the component
// that enumerates locally-led shards overlapping a request range, drives a
// consistent MVCC scan and SST upload per shard on a bounded worker pool,
// and streams one response back per shard.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coreshard/kvbackup/backup/wpool"
	"github.com/coreshard/kvbackup/cmn"
	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/cmn/nlog"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/core/meta"
	"github.com/coreshard/kvbackup/sink"
)

// Endpoint is the per-node backup coordinator. One
// Endpoint is built per store and reused across requests; its worker pool
// is sized once from config.
type Endpoint struct {
	cfg      *cmn.Config
	engine   core.Engine
	registry meta.Registry
	storeID  uint64
	pool     *wpool.Pool
}

func NewEndpoint(cfg *cmn.Config, engine core.Engine, registry meta.Registry, storeID uint64) *Endpoint {
	if cfg == nil {
		cfg = cmn.DefaultConfig()
	}
	return &Endpoint{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		storeID:  storeID,
		pool:     wpool.New(cfg.Concurrency),
	}
}

// task is one request's run: its own sink resolution, result channel, and
// per-shard fan-out bookkeeping. The id exists for log correlation.
type task struct {
	id      string
	req     *Request
	dst     sink.Sink
	results chan scanResult
	wg      sync.WaitGroup
}

// Handle validates the request, resolves its sink, and, for a full backup,
// enumerates the overlapping shards then dispatches each to the worker
// pool, returning responses on the channel as workers complete. The
// channel is closed once every dispatched shard has reported in (or
// earlier, if ctx is done first), or immediately for an unimplemented
// incremental backup. A rejected request returns an error and no channel.
//
// Responses are NOT guaranteed to be emitted in enumeration order; callers
// that need a stable order should sort on StartKeyRaw themselves.
func (e *Endpoint) Handle(ctx context.Context, req *Request) (<-chan Response, error) {
	if req.SinkURI == "" {
		return nil, cos.NewOtherError("bad request: empty sink_uri")
	}
	dst, err := sink.Resolve(req.SinkURI)
	if err != nil {
		return nil, err
	}

	out := make(chan Response)
	id := uuid.NewString()

	if !req.IsFullBackup() {
		nlog.Warningf("backup[%s]: incremental backup requested (start_ts=%d end_ts=%d) -- not implemented, dropping", id, req.StartTS, req.EndTS)
		close(out)
		return out, nil
	}

	nlog.Infof("backup[%s]: %s", id, req.String())

	start := cos.NewBound(nil, cos.MinusInf)
	if len(req.StartKey) > 0 {
		start = cos.NewBound(core.EncodeKey(req.StartKey), cos.MinusInf)
	}
	end := cos.NewBound(nil, cos.PlusInf)
	if len(req.EndKey) > 0 {
		end = cos.NewBound(core.EncodeKey(req.EndKey), cos.PlusInf)
	}

	ranges := walkRanges(e.registry, e.storeID, start, end)
	nlog.Infof("backup[%s]: enumerated %d shard(s)", id, len(ranges))

	// buffered so a worker-pool admission failure can report its result
	// inline during dispatch without needing a reader already running.
	t := &task{id: id, req: req, dst: dst, results: make(chan scanResult, len(ranges)+1)}

	go e.run(ctx, t, ranges, out)
	return out, nil
}

func (e *Endpoint) run(ctx context.Context, t *task, ranges []*BackupRange, out chan<- Response) {
	reqStart := time.Now()

	scanCfg := scanConfig{scanBatchSize: e.cfg.ScanBatchSize, shortValueMaxLen: e.cfg.ShortValueMaxLen}
	for _, br := range ranges {
		br := br
		t.wg.Add(1)
		err := e.pool.Go(ctx, func() {
			defer t.wg.Done()
			res := runShard(ctx, e.engine, t.dst, e.storeID, scanCfg, br, t.req.EndTS)
			select {
			case t.results <- res:
			case <-ctx.Done():
			}
		})
		if err != nil {
			// pool couldn't admit the task (ctx canceled); record as a
			// region error so the shard isn't silently dropped from the
			// response multiset.
			t.wg.Done()
			t.results <- scanResult{br: br, err: cos.NewRegionError(cos.RegionErrUnknown, "worker pool: %v", err)}
		}
	}

	go func() {
		t.wg.Wait()
		close(t.results)
	}()

	var total core.Statistics
	var errs cos.Errs
	n := 0
loop:
	for res := range t.results {
		n++
		total.Add(res.stats)
		if res.err != nil {
			errs.Add(res.err)
		}
		resp := Response{
			StartKeyRaw: res.br.StartKeyRaw(),
			EndKeyRaw:   res.br.EndKeyRaw(),
			Files:       res.files,
			Err:         res.err,
		}
		select {
		case out <- resp:
		case <-ctx.Done():
			// caller gone; remaining in-flight workers still finish and
			// land their result in the (buffered) channel, but nobody is
			// left to read them.
			nlog.Warningf("backup[%s]: caller gone, remaining shard results discarded", t.id)
			break loop
		}
	}
	close(out)

	requestSeconds.Observe(time.Since(reqStart).Seconds())
	if cnt, joined := errs.JoinErr(); cnt > 0 {
		nlog.Warningf("backup[%s]: %d distinct shard error(s): %v", t.id, cnt, joined)
	}
	nlog.Infof("backup[%s]: done, %d/%d shard(s) reported, keys_scanned=%d bytes_scanned=%d",
		t.id, n, len(ranges), total.KeysScanned, total.BytesScanned)
}

// SortResponses orders a collected batch of responses by ascending
// StartKeyRaw. The wire stream itself is emitted in worker-completion order;
// callers that want a stable ascending-start-key presentation order should
// collect and sort, as this helper does.
func SortResponses(resp []Response) []Response {
	sort.Slice(resp, func(i, j int) bool {
		return string(resp[i].StartKeyRaw) < string(resp[j].StartKeyRaw)
	})
	return resp
}
