// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package truthmark

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xdraw "golang.org/x/image/draw"
)

func solidGray(size int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func zeroKey() []byte { return make([]byte, KeySize) }

// TestHappyPath is end-to-end scenario 1: a solid gray 512x512 cover,
// a tiny provenance payload, a 32-zero-byte key.
func TestHappyPath(t *testing.T) {
	img := solidGray(512, 128)
	key := zeroKey()
	fields := map[string]any{
		"copyright":    "Acme 2025!!",
		"ai_generated": false,
	}

	watermarked, info, err := Embed(img, fields, key, EmbedConfig{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.PSNRdB, 45.0)

	got, _, detected, err := Extract(watermarked, key, ExtractConfig{})
	require.NoError(t, err)
	require.True(t, detected)
	assert.Equal(t, fields, got)
}

func TestInvalidKeySize(t *testing.T) {
	img := solidGray(128, 128)
	_, _, err := Embed(img, map[string]any{"copyright": "x"}, []byte("too short"), EmbedConfig{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, _, _, err = Extract(img, []byte("too short"), ExtractConfig{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

// photo builds a synthetic photograph-like cover: smooth gradients with
// a sinusoidal texture, so JPEG has something realistic to quantize.
func photo(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)/float64(size), float64(y)/float64(size)
			texture := 20 * math.Sin(float64(x)/7) * math.Cos(float64(y)/5)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(math.Max(0, math.Min(255, 60+140*fx+texture)))
			img.Pix[i+1] = uint8(math.Max(0, math.Min(255, 80+120*fy+texture)))
			img.Pix[i+2] = uint8(math.Max(0, math.Min(255, 90+100*fx*fy)))
			img.Pix[i+3] = 255
		}
	}
	return img
}

// jpegCycle re-encodes img at the given quality and decodes it back,
// simulating a platform that recompresses uploads.
func jpegCycle(t *testing.T, img image.Image, quality int) image.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	decoded, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	return decoded
}

// TestJPEGRecompressSurvival is end-to-end scenario 2: the watermark
// must survive a quality-70 JPEG re-encode. A fixed strength of 25 is
// used so every embedded coefficient clears the quality-70 luma
// quantization steps of the mid-frequency band.
func TestJPEGRecompressSurvival(t *testing.T) {
	img := photo(512)
	key := zeroKey()
	fields := map[string]any{
		"copyright":    "Acme 2025!!",
		"ai_generated": true,
	}

	watermarked, _, err := Embed(img, fields, key, EmbedConfig{
		Strength:                25,
		DisableAdaptiveStrength: true,
		DisableSaliency:         true,
	})
	require.NoError(t, err)

	recompressed := jpegCycle(t, watermarked, 70)

	got, _, detected, err := Extract(recompressed, key, ExtractConfig{})
	require.NoError(t, err)
	require.True(t, detected, "watermark did not survive JPEG quality 70")
	assert.Equal(t, fields, got)
}

// TestDownscaleAfterJPEG is end-to-end scenario 3: a 50% bilinear
// downscale after JPEG recompression. Recovery is expected-fragile, so
// the test only asserts that a claimed detection is exact, never that
// detection happens.
func TestDownscaleAfterJPEG(t *testing.T) {
	img := photo(512)
	key := zeroKey()
	fields := map[string]any{"copyright": "Acme 2025!!"}

	watermarked, _, err := Embed(img, fields, key, EmbedConfig{
		Strength:                25,
		DisableAdaptiveStrength: true,
		DisableSaliency:         true,
	})
	require.NoError(t, err)

	recompressed := jpegCycle(t, watermarked, 70)

	scaled := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), recompressed, recompressed.Bounds(), xdraw.Over, nil)

	got, _, detected, err := Extract(scaled, key, ExtractConfig{})
	require.NoError(t, err)
	if detected {
		assert.Equal(t, fields, got)
	}
}

func TestCustomSaliencyDetector(t *testing.T) {
	img := solidGray(128, 128)
	key := zeroKey()
	fields := map[string]any{
		"copyright":    "Acme 2025!!",
		"ai_generated": false,
	}

	calls := 0
	detector := Deep{Fn: func(img image.Image) ([]float32, error) {
		calls++
		b := img.Bounds()
		return make([]float32, b.Dx()*b.Dy()), nil
	}}

	_, _, err := Embed(img, fields, key, EmbedConfig{SaliencyDetector: detector})
	require.NoError(t, err)
	assert.Greater(t, calls, 0)
}
