// Package cos provides common low-level types and utilities shared by the
// backup coordinator.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"hash/crc32"

	"github.com/OneOfOne/xxhash"
)

// CksumHashSize tracks a running SHA-256 (the file descriptor's checksum of
// record) and CRC32 in parallel while an SST is being written, plus the
// number of bytes seen.
type CksumHashSize struct {
	sha  hash.Hash
	crc  hash.Hash32
	xx   *xxhash.XXHash64
	Size int64
}

func (c *CksumHashSize) Init() {
	c.sha = sha256.New()
	c.crc = crc32.NewIEEE()
	c.xx = xxhash.New64()
}

func (c *CksumHashSize) Write(p []byte) (int, error) {
	n, err := c.sha.Write(p)
	if err != nil {
		return n, err
	}
	c.crc.Write(p)
	c.xx.Write(p)
	c.Size += int64(n)
	return n, nil
}

// Finalize returns the hex-encoded SHA-256 and the CRC32 (fixed32, as
// required by the wire File message) once all entries have been written.
func (c *CksumHashSize) Finalize() (sha256Hex string, crc32V uint32) {
	return hex.EncodeToString(c.sha.Sum(nil)), c.crc.Sum32()
}

// XXHash64 is a fast auxiliary checksum, reported in the short-write error
// the SST writer raises when Size does not match the buffer it wrote; it is
// never part of the wire FileDescriptor, which only reports sha256/crc32.
func (c *CksumHashSize) XXHash64() uint64 { return c.xx.Sum64() }
