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
	"fmt"
	"image"
)

// Deep wraps a caller-supplied model: any synchronous function that maps
// an image to a row-major [0,1] saliency map of the same dimensions.
// truthmark has no opinion on what backs Fn (ONNX runtime, a remote
// inference call, a cgo binding); it only enforces the output contract
// the rest of the pipeline relies on.
type Deep struct {
	Fn func(img image.Image) ([]float32, error)
}

func (d Deep) Detect(img image.Image) ([]float32, error) {
	if d.Fn == nil {
		return nil, fmt.Errorf("saliency: Deep.Fn is nil")
	}
	m, err := d.Fn(img)
	if err != nil {
		return nil, fmt.Errorf("saliency: deep detector: %w", err)
	}
	bounds := img.Bounds()
	want := bounds.Dx() * bounds.Dy()
	if len(m) != want {
		return nil, fmt.Errorf("saliency: deep detector returned %d values, want %d", len(m), want)
	}
	out := make([]float32, len(m))
	for i, v := range m {
		out[i] = clamp01(v)
	}
	return out, nil
}
