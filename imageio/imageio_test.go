// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package imageio

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 100, A: 255})
		}
	}
	return img
}

func TestPNGRoundTripPreservesFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatPNG); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	img, format, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatPNG {
		t.Fatalf("format = %v, want png", format)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestJPEGRoundTripPreservesFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatJPEG); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, format, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatJPEG {
		t.Fatalf("format = %v, want jpeg", format)
	}
}

func TestUnknownFormatDefaultsToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatUnknown); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, format, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatPNG {
		t.Fatalf("FormatUnknown encoded as %v, want png", format)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image at all")))
	if err == nil {
		t.Fatalf("Decode accepted garbage")
	}
}

func TestFormatString(t *testing.T) {
	if FormatPNG.String() != "png" || FormatJPEG.String() != "jpeg" || FormatUnknown.String() != "unknown" {
		t.Fatalf("Format.String() mismatch")
	}
}
