// Package cmn holds configuration and wire-adjacent types shared across the
// backup coordinator.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import jsoniter "github.com/json-iterator/go"

// Config is the coordinator's process-wide configuration.
type Config struct {
	// Concurrency is the fixed worker pool size; each shard's scan-and-build
	// pipeline runs start-to-finish on one worker.
	Concurrency int `json:"concurrency"`
	// ScanBatchSize is the MVCC entry scanner's drain capacity.
	ScanBatchSize int `json:"scan_batch_size"`
	// ShortValueMaxLen is the threshold below which a value is inlined into
	// the "write" column family rather than stored in "default".
	ShortValueMaxLen int `json:"short_value_max_len"`
}

// DefaultConfig matches the defaults TiKV-style backup endpoints use
// (1024-entry batches, a 64-byte short-value threshold) with a modest
// worker-pool size suitable for a single store.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:      4,
		ScanBatchSize:    1024,
		ShortValueMaxLen: 64,
	}
}

func (c *Config) Marshal() ([]byte, error) { return jsoniter.Marshal(c) }
func (c *Config) Unmarshal(b []byte) error { return jsoniter.Unmarshal(b, c) }
