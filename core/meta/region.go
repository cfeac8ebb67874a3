// Package meta describes the region (shard) partition map: the ordered,
// gapless decomposition of the encoded key space into consensus groups,
// one replica of which may be the leader on this store.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import "github.com/coreshard/kvbackup/cmn/cos"

type Role int

const (
	RoleFollower Role = iota
	RoleLeader
	RoleLearner
)

type Epoch struct {
	Version uint64
	ConfVer uint64
}

type Peer struct {
	StoreID uint64
	PeerID  uint64
}

// Region is one shard: a contiguous, encoded-key-space range owned by a
// consensus group. EndKeyEnc empty means +inf; regions are ordered by
// StartKeyEnc and partition the encoded key space without gaps.
type Region struct {
	ID              uint64
	Epoch           Epoch
	StartKeyEnc     []byte
	EndKeyEnc       []byte // empty == +inf
	Peers           []Peer
	RoleOnThisStore Role
}

// StartBound and EndBound render the region's raw boundary fields as
// cos.Bound, applying the "empty end_key means +inf" sentinel rule.
func (r *Region) StartBound() cos.Bound { return cos.NewBound(r.StartKeyEnc, cos.MinusInf) }
func (r *Region) EndBound() cos.Bound   { return cos.NewBound(r.EndKeyEnc, cos.PlusInf) }

// LeaderPeer returns this store's own peer within the region, assuming
// RoleOnThisStore == RoleLeader; ok is false if no peer matches storeID
// (a registry invariant violation, but checked defensively at the call
// site in the walker).
func (r *Region) LeaderPeer(storeID uint64) (p Peer, ok bool) {
	for _, peer := range r.Peers {
		if peer.StoreID == storeID {
			return peer, true
		}
	}
	return Peer{}, false
}

// RegionInfo is one entry of the ordered iteration a registry seek yields.
type RegionInfo struct {
	Region *Region
	Role   Role
}

// Registry is the read-only, locally in-memory partition map. Access is
// synchronized by the registry itself; failures are soft.
type Registry interface {
	// SeekRegion invokes fn with an ordered iterator of regions starting at
	// the first region whose end key is greater than fromEncoded (or from
	// the very first region when fromEncoded is empty). fn may stop the
	// iteration early by returning false.
	SeekRegion(fromEncoded []byte, fn func(RegionInfo) bool) error
}
