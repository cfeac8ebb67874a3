// Package backup implements the per-node backup endpoint.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import (
	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/cmn/nlog"
	"github.com/coreshard/kvbackup/core/meta"
)

// walkRanges enumerates the locally-led shards overlapping [start, end).
// start and end are already in encoded space; a PlusInf end means unbounded
// above, a MinusInf start means unbounded below.
//
// Walks the registry's ordered iterator from the first region whose end
// key exceeds start, stops as soon as a region starts at or past end,
// skips non-leader regions, and clips each survivor's bounds against the
// request.
func walkRanges(registry meta.Registry, storeID uint64, start, end cos.Bound) []*BackupRange {
	var ranges []*BackupRange

	seekFrom := start.Raw() // nil/empty both mean "from the beginning"
	err := registry.SeekRegion(seekFrom, func(info meta.RegionInfo) bool {
		r := info.Region
		regionStart := r.StartBound()

		// "if request.end_key is Some and request.end_key <= region.start_key: stop"
		if end.Kind == cos.Exact && !regionStart.Less(end) {
			return false
		}
		if info.Role != meta.RoleLeader {
			return true // skip, keep walking
		}

		clippedStart := cos.MaxBound(start, regionStart)
		clippedEnd := cos.MinBound(end, r.EndBound())
		if !clippedStart.Less(clippedEnd) {
			// never emit an empty range
			return true
		}

		leader, ok := r.LeaderPeer(storeID)
		if !ok {
			nlog.Warningf("backup: region %d marked leader but has no peer for store %d", r.ID, storeID)
			return true
		}

		ranges = append(ranges, &BackupRange{
			Region:       r,
			LeaderPeer:   leader,
			ClippedStart: clippedStart,
			ClippedEnd:   clippedEnd,
		})
		return true
	})
	if err != nil {
		nlog.Errorf("backup: seek region failed: %v", err)
		return nil
	}
	return ranges
}
