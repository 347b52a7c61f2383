// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package saliency

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestUniform(t *testing.T) {
	m := Uniform(4, 3)
	if len(m) != 12 {
		t.Fatalf("len(Uniform(4,3)) = %d, want 12", len(m))
	}
	for i, v := range m {
		if v != 0.5 {
			t.Fatalf("Uniform[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestNormalizeFlatInputFallsBackToNeutral(t *testing.T) {
	m := []float32{3, 3, 3, 3}
	got := normalize(m)
	for i, v := range got {
		if v != 0.5 {
			t.Fatalf("normalize(flat)[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestNormalizeRangeIsZeroToOne(t *testing.T) {
	m := []float32{-5, 0, 10, 2.5}
	got := normalize(m)
	minV, maxV := got[0], got[0]
	for _, v := range got {
		if v < 0 || v > 1 {
			t.Fatalf("normalize produced out-of-range value %v", v)
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if minV != 0 {
		t.Fatalf("normalize min = %v, want 0", minV)
	}
	if maxV != 1 {
		t.Fatalf("normalize max = %v, want 1", maxV)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	got := normalize(nil)
	if len(got) != 0 {
		t.Fatalf("normalize(nil) = %v, want empty", got)
	}
}

// checkerboard builds a synthetic image with strong edges down the
// middle, useful for sanity-checking that gradient-based saliency
// responds where it should.
func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(30)
			if x >= w/2 {
				v = 220
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestClassicalOutputIsNormalized(t *testing.T) {
	img := checkerboard(32, 32)
	m, err := Classical{}.Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(m) != 32*32 {
		t.Fatalf("len(m) = %d, want %d", len(m), 32*32)
	}
	var minV, maxV float32 = m[0], m[0]
	for _, v := range m {
		if v < 0 || v > 1 {
			t.Fatalf("saliency value %v out of [0,1]", v)
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV-minV < 1e-3 {
		t.Fatalf("Classical produced a flat map for an image with a strong edge")
	}
}

func TestClassicalHigherNearEdge(t *testing.T) {
	img := checkerboard(32, 32)
	m, err := Classical{}.Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	at := func(x, y int) float32 { return m[y*32+x] }

	var nearEdge, farFromEdge float32
	for y := 8; y < 24; y++ {
		nearEdge += at(15, y) + at(16, y)
		farFromEdge += at(1, y) + at(30, y)
	}
	if nearEdge <= farFromEdge {
		t.Fatalf("expected higher saliency near the edge: near=%v far=%v", nearEdge, farFromEdge)
	}
}

func TestDeepDelegatesAndClamps(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	d := Deep{Fn: func(image.Image) ([]float32, error) {
		return []float32{-1, 0.5, 2, 0.25}, nil
	}}
	got, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	want := []float32{0, 0.5, 1, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeepPropagatesError(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	wantErr := errors.New("model unavailable")
	d := Deep{Fn: func(image.Image) ([]float32, error) {
		return nil, wantErr
	}}
	if _, err := d.Detect(img); err == nil {
		t.Fatalf("Detect returned nil error, want wrapped %v", wantErr)
	}
}

func TestDeepRejectsWrongShape(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	d := Deep{Fn: func(image.Image) ([]float32, error) {
		return []float32{0.1, 0.2}, nil
	}}
	if _, err := d.Detect(img); err == nil {
		t.Fatalf("Detect accepted a saliency map of the wrong length")
	}
}

func TestDeepNilFn(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	d := Deep{}
	if _, err := d.Detect(img); err == nil {
		t.Fatalf("Detect with nil Fn should error")
	}
}
