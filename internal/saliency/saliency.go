// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package saliency produces a per-pixel importance map in [0,1] from an
// RGB image, used only to modulate embedding strength per site (never to
// choose which sites are used — see internal/sites for why).
//
// Two backends implement the single-operation Detector interface:
// Classical (gradient magnitude, spectral residual, edge density) and
// Deep (an externally supplied model).
package saliency

import "image"

// Detector produces an H*W row-major saliency map with values in [0,1]
// from an RGB image.
type Detector interface {
	Detect(img image.Image) ([]float32, error)
}

// Uniform returns a flat map (all 0.5), used when no saliency backend is
// configured.
func Uniform(w, h int) []float32 {
	m := make([]float32, w*h)
	for i := range m {
		m[i] = 0.5
	}
	return m
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalize(m []float32) []float32 {
	if len(m) == 0 {
		return m
	}
	min, max := m[0], m[0]
	for _, v := range m {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float32, len(m))
	if max-min < 1e-6 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range m {
		out[i] = clamp01((v - min) / (max - min))
	}
	return out
}
