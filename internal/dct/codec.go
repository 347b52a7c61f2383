// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dct

import "github.com/truthmark/truthmark-go/internal/sites"

// MaxStrength bounds how far a single coefficient may be pushed, to
// keep the post-IDCT pixel domain inside a sane range even before the
// final [0,255] clamp at u8 composition (ComposeRGBA).
const MaxStrength = 512

// EmbedBit writes one bit into block at site, replacing the
// coefficient with +strength (bit=1) or -strength (bit=0). Saliency
// scaling, if any, must already be folded into strength by the caller
// (internal/watermark owns the modulation factor).
func EmbedBit(block *BlockF32, site sites.Site, bit byte, strength float32) {
	idx := 8*site.CoefY + site.CoefX
	v := strength
	if v > MaxStrength {
		v = MaxStrength
	}
	if bit == 0 {
		v = -v
	}
	block[idx] = v
}

// ExtractBit reads one bit from block at site: 1 iff the coefficient
// is strictly positive, 0 otherwise. No magnitude threshold is used,
// so the codec self-synchronizes against any attack that uniformly
// rescales coefficients (e.g. recompression at a different quality).
func ExtractBit(block *BlockF32, site sites.Site) byte {
	idx := 8*site.CoefY + site.CoefX
	if block[idx] > 0 {
		return 1
	}
	return 0
}
