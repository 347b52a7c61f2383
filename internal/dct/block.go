// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package dct implements the 8x8 type-II discrete cosine transform used
// to read and write watermark bits in the frequency domain, plus the
// RGB<->YCbCr conversions needed to isolate the Y (luma) channel.
//
// Unlike a JPEG codec, this package has no bitstream to write: it stops
// at coefficients and pixels, never emitting markers or Huffman codes,
// since the watermark lives in an in-memory image, not a compressed
// file.
package dct

import "image"

// BlockU8 is an 8x8 block of pixel-domain samples, row-major, indexed
// as b[8*y+x].
type BlockU8 [64]uint8

// BlockF32 is an 8x8 block of float32 values, row-major, indexed as
// b[8*y+x]. It holds either DCT coefficients (y = vertical frequency,
// x = horizontal frequency, b[0] the DC term) or pixel-domain samples,
// as returned by YImage.BlockAt and InverseDCTFrom.
type BlockF32 [64]float32

// YImage is a row-major plane of Y (luma) samples for one image, kept
// as float32 so that repeated forward/inverse transforms during the
// adaptive-strength search (see internal/watermark) don't accumulate
// extra rounding beyond the final u8 clamp.
type YImage struct {
	W, H int
	Y    []float32
}

// BlockAt returns the 8x8 block of y whose top-left corner is
// (8*blockX, 8*blockY). Callers work in block coordinates, not pixel
// coordinates.
func (img *YImage) BlockAt(blockY, blockX int) BlockF32 {
	var b BlockF32
	for dy := 0; dy < 8; dy++ {
		row := (8*blockY + dy) * img.W
		for dx := 0; dx < 8; dx++ {
			b[8*dy+dx] = img.Y[row+8*blockX+dx]
		}
	}
	return b
}

// SetBlockAt writes b back into the image at block coordinates
// (blockY, blockX), the inverse of BlockAt.
func (img *YImage) SetBlockAt(blockY, blockX int, b BlockF32) {
	for dy := 0; dy < 8; dy++ {
		row := (8*blockY + dy) * img.W
		for dx := 0; dx < 8; dx++ {
			img.Y[row+8*blockX+dx] = b[8*dy+dx]
		}
	}
}

// RGBToYImage converts an image.Image to a Y-only plane at the image's
// true dimensions, along with the Cb/Cr planes needed to recompose the
// final RGB image. The plane is deliberately not padded to a block
// multiple: rows and columns past the last full 8x8 block carry no
// watermark bits and pass through untouched. Padding by edge
// replication would not survive the round trip — the replicated
// samples would be derived from pre-embed pixels on the way in but
// from post-embed pixels on the way out, so boundary-block
// coefficients would not reproduce at extraction.
func RGBToYImage(img image.Image) (y *YImage, cb, cr []float32, origW, origH int) {
	bounds := img.Bounds()
	origW, origH = bounds.Dx(), bounds.Dy()

	y = &YImage{W: origW, H: origH, Y: make([]float32, origW*origH)}
	cb = make([]float32, origW*origH)
	cr = make([]float32, origW*origH)

	mYCbCr, isYCbCr := img.(*image.YCbCr)

	for py := 0; py < origH; py++ {
		for px := 0; px < origW; px++ {
			yy, cbv, crv := sampleYCbCr(img, mYCbCr, isYCbCr, bounds.Min.X+px, bounds.Min.Y+py)
			y.Y[py*origW+px] = float32(yy)
			cb[py*origW+px] = float32(cbv)
			cr[py*origW+px] = float32(crv)
		}
	}
	return y, cb, cr, origW, origH
}

func sampleYCbCr(img image.Image, mYCbCr *image.YCbCr, isYCbCr bool, x, y int) (yy, cb, cr uint8) {
	if isYCbCr {
		pix := mYCbCr.YCbCrAt(x, y)
		return pix.Y, pix.Cb, pix.Cr
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return yCbCrFromRGB8(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// yCbCrFromRGB8 is the same BT.601 transform as image/color.RGBToYCbCr,
// kept local so this package doesn't need to import image/color just
// for one call site used from two places.
func yCbCrFromRGB8(r, g, b uint8) (yy, cb, cr uint8) {
	r32, g32, b32 := int32(r), int32(g), int32(b)
	yy1 := (19595*r32 + 38470*g32 + 7471*b32 + (1 << 15)) >> 16
	cb1 := (-11056*r32 - 21712*g32 + 32768*b32 + (257 << 15)) >> 16
	cr1 := (32768*r32 - 27440*g32 - 5328*b32 + (257 << 15)) >> 16
	return clampU8(yy1), clampU8(cb1), clampU8(cr1)
}

func clampU8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ComposeRGBA reassembles a final *image.NRGBA from the Y plane and
// the Cb/Cr planes, rounding to u8. Chroma is never subsampled; only Y
// was ever modified.
func ComposeRGBA(y *YImage, cb, cr []float32, origW, origH int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, origW, origH))
	for py := 0; py < origH; py++ {
		for px := 0; px < origW; px++ {
			yy := y.Y[py*y.W+px]
			cbv := cb[py*origW+px]
			crv := cr[py*origW+px]
			r, g, b := ycbcrToRGB(yy, cbv, crv)
			i := out.PixOffset(px, py)
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out
}

func ycbcrToRGB(y, cb, cr float32) (r, g, b uint8) {
	yy := float64(y)
	cbv := float64(cb) - 128
	crv := float64(cr) - 128
	rf := yy + 1.40200*crv
	gf := yy - 0.34414*cbv - 0.71414*crv
	bf := yy + 1.77200*cbv
	return clampRoundU8(rf), clampRoundU8(gf), clampRoundU8(bf)
}

func clampRoundU8(v float64) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
