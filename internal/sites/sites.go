// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package sites selects which 8x8 Y-channel DCT coefficients carry
// watermark bits. Selection is a pure function of (H, W, n_bits) only:
// never the key, never the image's pixel content, never a saliency map.
// That is what lets an extractor regenerate the exact same site list
// from image dimensions alone, with no side-channel metadata.
package sites

import "errors"

// ErrImageTooSmall is returned when n_bits exceeds the number of
// available mid-frequency coefficients across all 8x8 blocks.
var ErrImageTooSmall = errors.New("sites: image too small for requested bit count")

// globalSeed is a fixed constant of the format. It is never derived
// from the key or the image; changing it would be a breaking format
// change, on par with changing the mid-frequency set below.
const globalSeed uint64 = 0x54727574684d6b // "TruthMk" in ASCII, truncated to 7 bytes.

// midFrequency holds zig-zag positions 6..20 (inclusive) of the standard
// 8x8 JPEG zig-zag ordering: 15 coefficients, deliberately excluding the
// DC term (position 0) and the highest-frequency AC terms, which are
// the first to be destroyed by quantization and rescaling.
var midFrequency = zigzagPositions(6, 20)

// zigzagOrder is the standard JPEG zig-zag scan of an 8x8 block, each
// entry a (row, col) pair in natural (non-zigzag) coordinates.
var zigzagOrder = [64][2]int{
	{0, 0}, {0, 1}, {1, 0}, {2, 0}, {1, 1}, {0, 2}, {0, 3}, {1, 2},
	{2, 1}, {3, 0}, {4, 0}, {3, 1}, {2, 2}, {1, 3}, {0, 4}, {0, 5},
	{1, 4}, {2, 3}, {3, 2}, {4, 1}, {5, 0}, {6, 0}, {5, 1}, {4, 2},
	{3, 3}, {2, 4}, {1, 5}, {0, 6}, {0, 7}, {1, 6}, {2, 5}, {3, 4},
	{4, 3}, {5, 2}, {6, 1}, {7, 0}, {7, 1}, {6, 2}, {5, 3}, {4, 4},
	{3, 5}, {2, 6}, {1, 7}, {2, 7}, {3, 6}, {4, 5}, {5, 4}, {6, 3},
	{7, 2}, {7, 3}, {6, 4}, {5, 5}, {4, 6}, {3, 7}, {4, 7}, {5, 6},
	{6, 5}, {7, 4}, {7, 5}, {6, 6}, {5, 7}, {6, 7}, {7, 6}, {7, 7},
}

func zigzagPositions(lo, hi int) [][2]int {
	out := make([][2]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, zigzagOrder[i])
	}
	return out
}

// Site names one embedding location: an 8x8 Y block and one coefficient
// within it, in natural (row, col) coordinates.
type Site struct {
	BlockY int
	BlockX int
	CoefY  int
	CoefX  int
}

// Select returns the first n_bits sites of the fixed, deterministic
// permutation of all (block, coefficient) pairs for an H x W image. The
// same (H, W, n_bits) always yields the same list, on any machine, in
// any process, per the format's determinism contract.
func Select(h, w, nBits int) ([]Site, error) {
	blocksY, blocksX := h/8, w/8
	numBlocks := blocksY * blocksX
	capacity := numBlocks * len(midFrequency)
	if nBits > capacity {
		return nil, ErrImageTooSmall
	}

	perm := permutation(numBlocks * len(midFrequency))
	out := make([]Site, nBits)
	for i := 0; i < nBits; i++ {
		idx := perm[i]
		blockIdx := idx / len(midFrequency)
		coefIdx := idx % len(midFrequency)
		by, bx := blockIdx/blocksX, blockIdx%blocksX
		coef := midFrequency[coefIdx]
		out[i] = Site{BlockY: by, BlockX: bx, CoefY: coef[0], CoefX: coef[1]}
	}
	return out, nil
}

// permutation generates a deterministic Fisher-Yates shuffle of
// [0, n) driven by a splitmix64 stream seeded from the fixed global
// constant. splitmix64 is used (rather than math/rand) so the sequence
// is specified byte-for-byte and stable across Go versions, matching
// the "identical images at different scales produce different site
// orders, but the same dims always produce the same order" invariant
// regardless of which Go toolchain built the binary.
func permutation(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	state := globalSeed
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		return z
	}
	for i := n - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MidFrequencyCount is the number of mid-frequency coefficients
// available per 8x8 block (fixed at 15 by the format).
func MidFrequencyCount() int {
	return len(midFrequency)
}
