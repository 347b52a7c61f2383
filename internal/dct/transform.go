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

import "math"

// cosTable[k][n] = cos(pi/8 * (n+0.5) * k), precomputed once since
// every 8x8 block in an image reuses the same 64 values.
var cosTable [8][8]float64

// alpha[0] = sqrt(1/8), alpha[k>0] = sqrt(1/4), the orthonormal DCT-II
// scale factors.
var alpha [8]float64

func init() {
	for k := 0; k < 8; k++ {
		for n := 0; n < 8; n++ {
			cosTable[k][n] = math.Cos(math.Pi / 8 * (float64(n) + 0.5) * float64(k))
		}
	}
	alpha[0] = math.Sqrt(1.0 / 8.0)
	for k := 1; k < 8; k++ {
		alpha[k] = math.Sqrt(2.0 / 8.0)
	}
}

// dct1D computes the forward orthonormal DCT-II of an 8-element vector.
func dct1D(in [8]float64) [8]float64 {
	var out [8]float64
	for k := 0; k < 8; k++ {
		var sum float64
		for n := 0; n < 8; n++ {
			sum += in[n] * cosTable[k][n]
		}
		out[k] = alpha[k] * sum
	}
	return out
}

// idct1D computes the inverse (DCT-III) transform, undoing dct1D.
func idct1D(in [8]float64) [8]float64 {
	var out [8]float64
	for n := 0; n < 8; n++ {
		var sum float64
		for k := 0; k < 8; k++ {
			sum += alpha[k] * in[k] * cosTable[k][n]
		}
		out[n] = sum
	}
	return out
}

// ForwardDCTFrom returns the 2D forward DCT of src. The transform is
// separable: rows first, then columns.
func ForwardDCTFrom(src *BlockU8) BlockF32 {
	var rows [8][8]float64
	for y := 0; y < 8; y++ {
		var in [8]float64
		for x := 0; x < 8; x++ {
			in[x] = float64(src[8*y+x]) - 128 // level shift, as in baseline JPEG.
		}
		rows[y] = dct1D(in)
	}

	var out BlockF32
	for x := 0; x < 8; x++ {
		var col [8]float64
		for y := 0; y < 8; y++ {
			col[y] = rows[y][x]
		}
		t := dct1D(col)
		for y := 0; y < 8; y++ {
			out[8*y+x] = float32(t[y])
		}
	}
	return out
}

// ForwardDCTFromF32 is ForwardDCTFrom's counterpart for a float32
// pixel-domain block (used on the Y plane, which is float32 throughout
// the embed pipeline to avoid re-quantizing to u8 between the forward
// and inverse passes of the adaptive-strength search).
func ForwardDCTFromF32(src *BlockF32) BlockF32 {
	var rows [8][8]float64
	for y := 0; y < 8; y++ {
		var in [8]float64
		for x := 0; x < 8; x++ {
			in[x] = float64(src[8*y+x]) - 128
		}
		rows[y] = dct1D(in)
	}

	var out BlockF32
	for x := 0; x < 8; x++ {
		var col [8]float64
		for y := 0; y < 8; y++ {
			col[y] = rows[y][x]
		}
		t := dct1D(col)
		for y := 0; y < 8; y++ {
			out[8*y+x] = float32(t[y])
		}
	}
	return out
}

// InverseDCTFrom returns the 2D inverse DCT of src, producing
// pixel-domain values with the level shift undone. Clamping to [0,255]
// happens later, at u8 composition.
func InverseDCTFrom(src *BlockF32) BlockF32 {
	var rows [8][8]float64
	for y := 0; y < 8; y++ {
		var in [8]float64
		for x := 0; x < 8; x++ {
			in[x] = float64(src[8*y+x])
		}
		rows[y] = idct1D(in)
	}

	var out BlockF32
	for x := 0; x < 8; x++ {
		var col [8]float64
		for y := 0; y < 8; y++ {
			col[y] = rows[y][x]
		}
		t := idct1D(col)
		for y := 0; y < 8; y++ {
			out[8*y+x] = float32(t[y] + 128)
		}
	}
	return out
}
