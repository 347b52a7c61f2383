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

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/truthmark/truthmark-go/internal/sites"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		var block BlockU8
		for i := range block {
			block[i] = uint8(r.Intn(256))
		}
		freq := ForwardDCTFrom(&block)
		back := InverseDCTFrom(&freq)
		for i := range block {
			got := back[i]
			want := float32(block[i])
			if math.Abs(float64(got-want)) > 1.0 {
				t.Fatalf("trial %d: pixel %d round-trip = %v, want ~%v", trial, i, got, want)
			}
		}
	}
}

func TestDCTIsLinearAroundDC(t *testing.T) {
	var flat BlockU8
	for i := range flat {
		flat[i] = 128
	}
	freq := ForwardDCTFrom(&flat)
	for i := 1; i < 64; i++ {
		if math.Abs(float64(freq[i])) > 1e-3 {
			t.Fatalf("AC coefficient %d of a flat block = %v, want ~0", i, freq[i])
		}
	}
}

func TestEmbedExtractBitRoundTrip(t *testing.T) {
	var block BlockU8
	for i := range block {
		block[i] = 100
	}
	freq := ForwardDCTFrom(&block)

	site := sites.Site{CoefY: 1, CoefX: 2}
	EmbedBit(&freq, site, 1, 40)
	if got := ExtractBit(&freq, site); got != 1 {
		t.Fatalf("ExtractBit after embedding 1 = %d", got)
	}

	EmbedBit(&freq, site, 0, 40)
	if got := ExtractBit(&freq, site); got != 0 {
		t.Fatalf("ExtractBit after embedding 0 = %d", got)
	}
}

func TestEmbedSurvivesRoundTripThroughPixels(t *testing.T) {
	var block BlockU8
	r := rand.New(rand.NewSource(11))
	for i := range block {
		block[i] = uint8(80 + r.Intn(40))
	}
	freq := ForwardDCTFrom(&block)

	site := sites.Site{CoefY: 2, CoefX: 2}
	EmbedBit(&freq, site, 1, 60)

	pixels := InverseDCTFrom(&freq)
	var reencoded BlockU8
	for i := range reencoded {
		v := pixels[i]
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		reencoded[i] = uint8(v + 0.5)
	}

	recovered := ForwardDCTFrom(&reencoded)
	if got := ExtractBit(&recovered, site); got != 1 {
		t.Fatalf("bit did not survive pixel round trip: got %d, want 1", got)
	}
}

func TestRGBToYImageAndComposeRoundTrip(t *testing.T) {
	const w, h = 10, 6
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r := rand.New(rand.NewSource(3))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(r.Intn(256))
			img.Pix[i+1] = uint8(r.Intn(256))
			img.Pix[i+2] = uint8(r.Intn(256))
			img.Pix[i+3] = 255
		}
	}

	yImg, cb, cr, origW, origH := RGBToYImage(img)
	if origW != w || origH != h {
		t.Fatalf("origW,origH = %d,%d want %d,%d", origW, origH, w, h)
	}
	if yImg.W != w || yImg.H != h {
		t.Fatalf("Y plane dims = %dx%d, want the image's own %dx%d", yImg.W, yImg.H, w, h)
	}

	out := ComposeRGBA(yImg, cb, cr, origW, origH)
	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		t.Fatalf("composed image has wrong bounds: %v", out.Bounds())
	}

	// Lossy YCbCr round trip: allow a small per-channel tolerance.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			oi := img.PixOffset(x, y)
			ni := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				diff := int(img.Pix[oi+c]) - int(out.Pix[ni+c])
				if diff < -3 || diff > 3 {
					t.Fatalf("pixel (%d,%d) channel %d: got %d, want ~%d", x, y, c, out.Pix[ni+c], img.Pix[oi+c])
				}
			}
		}
	}
}
