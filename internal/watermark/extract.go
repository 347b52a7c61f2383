// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package watermark

import (
	"errors"
	"image"

	"github.com/truthmark/truthmark-go/internal/aead"
	"github.com/truthmark/truthmark-go/internal/bitcodec"
	"github.com/truthmark/truthmark-go/internal/dct"
	"github.com/truthmark/truthmark-go/internal/ecc"
	"github.com/truthmark/truthmark-go/internal/payload"
	"github.com/truthmark/truthmark-go/internal/sites"
)

// ErrImageUnreadable is the only error Extract returns; absence of a
// valid watermark is reported as a normal (false, nil) result, not an
// error.
var ErrImageUnreadable = errors.New("watermark: image unreadable")

// ExtractConfig configures Extract. The zero value means defaults.
type ExtractConfig struct {
	// EccSymbols must match the value used at embed time. 0 means
	// ecc.DefaultParitySymbols.
	EccSymbols int
	// MaxPayloadBytes bounds the length-search ladder. 0 means 2000.
	MaxPayloadBytes int
}

func (c ExtractConfig) withDefaults() ExtractConfig {
	if c.EccSymbols == 0 {
		c.EccSymbols = ecc.DefaultParitySymbols
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = maxLadderBytes
	}
	return c
}

// Confidence reports extraction-quality signals alongside a successful
// result.
type Confidence struct {
	// ErrorsCorrected is the total number of Reed-Solomon symbol errors
	// corrected across all blocks of the recovered payload.
	ErrorsCorrected int
}

// maxLadderBytes is the ceiling of the size ladder, and therefore the
// largest total embedded size (ciphertext plus tag) the format can
// represent.
const maxLadderBytes = 2000

// sizeLadder enumerates candidate total embedded sizes in bytes
// (including the 32-byte AEAD tag). This schedule is part of the wire
// format: the embedder pads every payload onto one of these rungs, the
// extractor walks them in exactly this order, and it must never be
// reordered.
func sizeLadder(maxBytes int) []int {
	var out []int
	for s := 100; s <= 500 && s <= maxBytes; s += 4 {
		out = append(out, s)
	}
	for s := 520; s <= 1000 && s <= maxBytes; s += 20 {
		out = append(out, s)
	}
	for s := 1050; s <= 2000 && s <= maxBytes; s += 50 {
		out = append(out, s)
	}
	return out
}

// Extract attempts to recover a watermark embedded by Embed. It
// returns (fields, confidence, true, nil) on success, (nil,
// Confidence{}, false, nil) when no watermark is detected, and a
// non-nil error only when img itself cannot be read.
func Extract(img image.Image, key []byte, cfg ExtractConfig) (map[string]any, Confidence, bool, error) {
	cfg = cfg.withDefaults()

	bounds := img.Bounds()
	if bounds.Dx() < 64 || bounds.Dy() < 64 {
		return nil, Confidence{}, false, ErrImageUnreadable
	}

	yImg, _, _, _, _ := dct.RGBToYImage(img)
	blocksY, blocksX := yImg.H/8, yImg.W/8
	capacityBits := blocksY * blocksX * sites.MidFrequencyCount()

	eccCodec := ecc.New(cfg.EccSymbols)

	for _, s := range sizeLadder(cfg.MaxPayloadBytes) {
		nBits := 8 * s
		if nBits > capacityBits {
			continue
		}

		siteList, err := sites.Select(yImg.H, yImg.W, nBits)
		if err != nil {
			continue
		}

		bits := extractBits(yImg, siteList)
		packed := bitcodec.Pack(bits)
		if len(packed) < aead.TagSize {
			continue
		}
		ciphertext := packed[:len(packed)-aead.TagSize]
		tag := packed[len(packed)-aead.TagSize:]

		plaintext, err := aead.Decrypt(key, ciphertext, tag)
		if err != nil {
			continue
		}

		decoded, nErrors, err := eccCodec.Decode(plaintext)
		if err != nil {
			continue
		}

		fields, err := payload.Parse(decoded)
		if err != nil {
			continue
		}

		return fields, Confidence{ErrorsCorrected: nErrors}, true, nil
	}

	return nil, Confidence{}, false, nil
}

// extractBits reads one bit per site, caching each 8x8 block's forward
// DCT since the same block typically carries several sites (up to 15,
// the size of the mid-frequency set).
func extractBits(yImg *dct.YImage, siteList []sites.Site) []byte {
	type blockKey struct{ by, bx int }
	cache := make(map[blockKey]dct.BlockF32, len(siteList))

	bits := make([]byte, len(siteList))
	for i, site := range siteList {
		k := blockKey{site.BlockY, site.BlockX}
		freq, ok := cache[k]
		if !ok {
			block := yImg.BlockAt(site.BlockY, site.BlockX)
			freq = dct.ForwardDCTFromF32(&block)
			cache[k] = freq
		}
		bits[i] = dct.ExtractBit(&freq, site)
	}
	return bits
}
