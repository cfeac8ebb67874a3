// Package core describes the storage engine's MVCC contract.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

// EncodeKey maps a user-level raw key into the engine's encoded key space.
// The transformation is the classic memcomparable encoding: the key is
// split into 8-byte groups, each
// padded with 0x00 and followed by a marker byte counting how many of the
// group's bytes are "real" (0xFF for a full group, 0xF7..0xFE for the final
// partial or empty group: 0xFF minus the number of padding bytes). Two encoded keys compare, byte for byte, in the
// same order as the raw keys they came from, and the mapping is bijective.
func EncodeKey(raw []byte) []byte {
	const groupSize = 8
	encoded := make([]byte, 0, (len(raw)/groupSize+1)*(groupSize+1))
	for i := 0; ; i += groupSize {
		remain := len(raw) - i
		var group [groupSize]byte
		var pad int
		if remain >= groupSize {
			copy(group[:], raw[i:i+groupSize])
		} else {
			if remain > 0 {
				copy(group[:], raw[i:])
			}
			pad = groupSize - remain
		}
		encoded = append(encoded, group[:]...)
		encoded = append(encoded, 0xFF-byte(pad))
		if pad > 0 {
			break
		}
	}
	return encoded
}

// DecodeKey inverts EncodeKey, returning the original raw key.
func DecodeKey(encoded []byte) ([]byte, error) {
	const groupSize = 8
	var raw []byte
	for i := 0; i < len(encoded); i += groupSize + 1 {
		if i+groupSize+1 > len(encoded) {
			return nil, errShortEncodedKey
		}
		group := encoded[i : i+groupSize]
		marker := encoded[i+groupSize]
		pad := 0xFF - int(marker)
		if pad < 0 || pad > groupSize {
			return nil, errBadMarker
		}
		raw = append(raw, group[:groupSize-pad]...)
		if pad > 0 {
			break
		}
	}
	return raw, nil
}

var (
	errShortEncodedKey = errShort{}
	errBadMarker       = errMarker{}
)

type errShort struct{}

func (errShort) Error() string { return "core: truncated encoded key" }

type errMarker struct{}

func (errMarker) Error() string { return "core: invalid encoded-key group marker" }
