// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package truthmark embeds and recovers an encrypted, error-corrected
// provenance payload inside the Y-channel DCT coefficients of a raster
// image. Embed is perceptually invisible at default strength, survives
// moderate JPEG recompression, and is cryptographically sealed: only a
// holder of the symmetric key can read the payload, and any tampering
// is detected. Extract recovers the payload blind, with no length or
// presence metadata stored outside the pixels themselves.
//
// The package is a pure, synchronous library: a call allocates no
// long-lived state and holds no resources once it returns. Embed and
// Extract calls are independent and safe to run concurrently across
// different images.
package truthmark

import (
	"errors"
	"image"

	"github.com/truthmark/truthmark-go/internal/aead"
	"github.com/truthmark/truthmark-go/internal/saliency"
	"github.com/truthmark/truthmark-go/internal/watermark"
)

// Sentinel errors for the distinct caller-visible failure kinds.
var (
	ErrImageTooSmall   = watermark.ErrImageTooSmall
	ErrPayloadTooLarge = watermark.ErrPayloadTooLarge
	ErrImageUnreadable = watermark.ErrImageUnreadable
	ErrInvalidKey      = errors.New("truthmark: invalid key size")
	ErrInternal        = errors.New("truthmark: internal error")
)

// KeySize is the required symmetric key length in bytes.
const KeySize = aead.KeySize

// Detector re-exports the saliency backend interface so callers can
// supply their own implementation (e.g. a Deep detector backed by a
// model) without importing an internal package.
type Detector = saliency.Detector

// Classical is the dependency-free saliency backend (gradient
// magnitude, spectral residual, edge density).
type Classical = saliency.Classical

// Deep wraps a caller-supplied saliency model.
type Deep = saliency.Deep

// EmbedConfig configures Embed. The zero value resolves to the
// documented defaults (strength 15.0, target PSNR 42 dB, adaptive
// strength and saliency both enabled, 32 Reed-Solomon parity symbols).
type EmbedConfig = watermark.EmbedConfig

// EmbedInfo reports what Embed actually did: how many bits were
// embedded, which strength was chosen, the measured PSNR, and how many
// sites were used.
type EmbedInfo = watermark.EmbedInfo

// ExtractConfig configures Extract. The zero value resolves to the
// documented defaults (32 Reed-Solomon parity symbols, a 2000-byte
// ladder ceiling).
type ExtractConfig = watermark.ExtractConfig

// Confidence reports extraction-quality signals alongside a successful
// Extract call.
type Confidence = watermark.Confidence

// Embed writes fields into img's Y-channel DCT coefficients, sealed
// under key, returning the watermarked image and a report of what was
// done.
//
// Fails with ErrImageTooSmall if img is smaller than 64x64, or
// ErrPayloadTooLarge if the canonical-JSON-encoded, error-corrected,
// encrypted payload exceeds the image's site capacity.
func Embed(img image.Image, fields map[string]any, key []byte, cfg EmbedConfig) (*image.NRGBA, EmbedInfo, error) {
	if len(key) != KeySize {
		return nil, EmbedInfo{}, ErrInvalidKey
	}
	return watermark.Embed(img, fields, key, cfg)
}

// Extract attempts to recover a watermark embedded by Embed.
//
// A missing or undecodable watermark is reported as (nil, Confidence{},
// false, nil): this is a normal outcome, not an error. A non-nil error
// is returned only when img itself cannot be read (too small) or key
// has the wrong size.
func Extract(img image.Image, key []byte, cfg ExtractConfig) (map[string]any, Confidence, bool, error) {
	if len(key) != KeySize {
		return nil, Confidence{}, false, ErrInvalidKey
	}
	return watermark.Extract(img, key, cfg)
}
