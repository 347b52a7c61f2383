// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package watermark orchestrates the embed and extract pipelines:
// Payload, ECC, AEAD, BitCodec, SiteSelector, Saliency and DCTCodec
// composed into the two operations truthmark exposes publicly.
package watermark

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/truthmark/truthmark-go/internal/aead"
	"github.com/truthmark/truthmark-go/internal/bitcodec"
	"github.com/truthmark/truthmark-go/internal/dct"
	"github.com/truthmark/truthmark-go/internal/ecc"
	"github.com/truthmark/truthmark-go/internal/payload"
	"github.com/truthmark/truthmark-go/internal/saliency"
	"github.com/truthmark/truthmark-go/internal/sites"
)

var (
	ErrImageTooSmall   = errors.New("watermark: image smaller than the 64x64 minimum")
	ErrPayloadTooLarge = errors.New("watermark: encoded payload exceeds site capacity")
)

// strengthLadder is the fixed multiplier sequence the adaptive search
// walks, in ascending order so that a PSNR tie is broken toward the
// lower (earlier) strength.
var strengthLadder = []float32{0.7, 0.85, 1.0, 1.15, 1.3}

// saliencyAlpha is the embed-time strength modulation factor: a fully
// salient block is written at 1.5x strength.
const saliencyAlpha = 0.5

// EmbedConfig configures Embed. The zero value means defaults: every
// field's zero value selects the documented default, and the two
// booleans that default to true are expressed as "Disable*" flags so
// their zero value (false) still means "enabled".
type EmbedConfig struct {
	// Strength is the base DCT modification magnitude. 0 means 15.0.
	Strength float32
	// TargetPSNR is the adaptive-strength search target. 0 means 42.0.
	TargetPSNR float64
	// DisableAdaptiveStrength skips the strength ladder and always uses
	// Strength as-is.
	DisableAdaptiveStrength bool
	// DisableSaliency forces a uniform (all 0.5) saliency map.
	DisableSaliency bool
	// EccSymbols is the Reed-Solomon parity budget per 255-byte block.
	// 0 means ecc.DefaultParitySymbols.
	EccSymbols int
	// IncludeTimestamp stamps the payload with the embed time (RFC 3339,
	// UTC), replacing any caller-supplied "timestamp" field.
	IncludeTimestamp bool
	// IncludeTruthMarkID mints a fresh UUID into the payload's
	// "truthmark_id" field.
	IncludeTruthMarkID bool
	// IncludeFingerprint adds an "image_hash" field: the first 16 hex
	// digits of the SHA-256 of the cover's RGB samples, tying the
	// payload to the specific cover it was embedded into.
	IncludeFingerprint bool
	// AIActCompliance adds an "ai_compliance" block marking the payload
	// as EU-AI-Act-labeled synthetic content when the payload says
	// ai_generated.
	AIActCompliance bool
	// SaliencyDetector selects the saliency backend. nil means
	// saliency.Classical{}.
	SaliencyDetector saliency.Detector
}

func (c EmbedConfig) withDefaults() EmbedConfig {
	if c.Strength == 0 {
		c.Strength = 15.0
	}
	if c.TargetPSNR == 0 {
		c.TargetPSNR = 42.0
	}
	if c.EccSymbols == 0 {
		c.EccSymbols = ecc.DefaultParitySymbols
	}
	return c
}

// EmbedInfo reports what Embed actually did.
type EmbedInfo struct {
	BitsEmbedded int
	StrengthUsed float32
	PSNRdB       float64
	NSites       int
}

// Embed builds the encoded bitstream for fields, selects embedding
// sites, and writes it into img's Y-channel DCT coefficients, returning
// the watermarked image.
func Embed(img image.Image, fields map[string]any, key []byte, cfg EmbedConfig) (*image.NRGBA, EmbedInfo, error) {
	cfg = cfg.withDefaults()

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 64 || h < 64 {
		return nil, EmbedInfo{}, ErrImageTooSmall
	}

	fields = augmentFields(fields, cfg, img)
	encodedBits, err := buildEncodedBits(fields, key, cfg.EccSymbols)
	if err != nil {
		return nil, EmbedInfo{}, err
	}
	nBits := len(encodedBits)

	yOrig, cb, cr, origW, origH := dct.RGBToYImage(img)
	blocksY, blocksX := yOrig.H/8, yOrig.W/8
	capacity := blocksY * blocksX * sites.MidFrequencyCount()
	if nBits > capacity {
		return nil, EmbedInfo{}, ErrPayloadTooLarge
	}

	siteList, err := sites.Select(yOrig.H, yOrig.W, nBits)
	if err != nil {
		return nil, EmbedInfo{}, ErrPayloadTooLarge
	}

	saliencyMap := saliency.Uniform(origW, origH)
	if !cfg.DisableSaliency {
		detector := cfg.SaliencyDetector
		if detector == nil {
			detector = saliency.Classical{}
		}
		if m, err := detector.Detect(img); err == nil {
			saliencyMap = m
		}
	}

	strengths := []float32{cfg.Strength}
	if !cfg.DisableAdaptiveStrength {
		strengths = make([]float32, len(strengthLadder))
		for i, mult := range strengthLadder {
			strengths[i] = mult * cfg.Strength
		}
	}

	var best *embedResult
	for _, strength := range strengths {
		res := embedAtStrength(img, yOrig, cb, cr, origW, origH, siteList, encodedBits, strength, saliencyMap)
		if best == nil || math.Abs(res.psnr-cfg.TargetPSNR) < math.Abs(best.psnr-cfg.TargetPSNR) {
			best = res
		}
	}

	info := EmbedInfo{
		BitsEmbedded: nBits,
		StrengthUsed: best.strength,
		PSNRdB:       best.psnr,
		NSites:       len(siteList),
	}
	return best.image, info, nil
}

type embedResult struct {
	image    *image.NRGBA
	psnr     float64
	strength float32
}

func embedAtStrength(orig image.Image, yOrig *dct.YImage, cb, cr []float32, origW, origH int, siteList []sites.Site, bits []byte, strength float32, saliencyMap []float32) *embedResult {
	y := &dct.YImage{W: yOrig.W, H: yOrig.H, Y: append([]float32(nil), yOrig.Y...)}

	type blockKey struct{ by, bx int }
	byBlock := make(map[blockKey][]int, len(siteList))
	order := make([]blockKey, 0, len(siteList))
	for i, s := range siteList {
		k := blockKey{s.BlockY, s.BlockX}
		if _, ok := byBlock[k]; !ok {
			order = append(order, k)
		}
		byBlock[k] = append(byBlock[k], i)
	}

	for _, k := range order {
		block := y.BlockAt(k.by, k.bx)
		freq := dct.ForwardDCTFromF32(&block)
		for _, i := range byBlock[k] {
			site := siteList[i]
			s := strength * saliencyFactor(saliencyMap, origW, origH, k.bx*8+4, k.by*8+4)
			dct.EmbedBit(&freq, site, bits[i], s)
		}
		pixels := dct.InverseDCTFrom(&freq)
		y.SetBlockAt(k.by, k.bx, pixels)
	}

	out := dct.ComposeRGBA(y, cb, cr, origW, origH)
	psnr := computePSNR(orig, out, origW, origH)
	return &embedResult{image: out, psnr: psnr, strength: strength}
}

// saliencyFactor returns (1 + alpha*saliency[center]), clamped to the
// map's bounds.
func saliencyFactor(saliencyMap []float32, w, h, cx, cy int) float32 {
	if cx >= w {
		cx = w - 1
	}
	if cy >= h {
		cy = h - 1
	}
	if cx < 0 || cy < 0 || len(saliencyMap) == 0 {
		return 1
	}
	return 1 + saliencyAlpha*saliencyMap[cy*w+cx]
}

// augmentFields applies the Include* payload options. Stamped values
// replace caller-supplied ones: enabling IncludeTimestamp means "this
// payload records when *this* embed happened".
func augmentFields(fields map[string]any, cfg EmbedConfig, img image.Image) map[string]any {
	if !cfg.IncludeTimestamp && !cfg.IncludeTruthMarkID && !cfg.IncludeFingerprint && !cfg.AIActCompliance {
		return fields
	}
	out := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		out[k] = v
	}
	if cfg.IncludeTimestamp {
		out["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	if cfg.IncludeTruthMarkID {
		out["truthmark_id"] = uuid.New().String()
	}
	if cfg.IncludeFingerprint {
		out["image_hash"] = imageHash(img)
	}
	if cfg.AIActCompliance {
		compliance, _ := out["ai_compliance"].(map[string]any)
		if compliance == nil {
			compliance = map[string]any{}
		}
		compliance["eu_ai_act"] = true
		generated, _ := out["ai_generated"].(bool)
		compliance["synthetic_content"] = generated
		out["ai_compliance"] = compliance
	}
	return out
}

// imageHash is the first 16 hex digits of the SHA-256 over the cover's
// RGB samples, row-major.
func imageHash(img image.Image) string {
	bounds := img.Bounds()
	h := sha256.New()
	row := make([]byte, 3*bounds.Dx())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := 0
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			row[i+0] = uint8(r >> 8)
			row[i+1] = uint8(g >> 8)
			row[i+2] = uint8(b >> 8)
			i += 3
		}
		h.Write(row)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func buildEncodedBits(fields map[string]any, key []byte, eccSymbols int) ([]byte, error) {
	plaintext, err := payload.Build(fields)
	if err != nil {
		return nil, fmt.Errorf("watermark: build payload: %w", err)
	}
	codec := ecc.New(eccSymbols)
	plaintext, err = padToLadder(plaintext, codec)
	if err != nil {
		return nil, err
	}
	rsEncoded := codec.Encode(plaintext)
	ciphertext, tag, err := aead.Encrypt(key, rsEncoded)
	if err != nil {
		return nil, fmt.Errorf("watermark: encrypt payload: %w", err)
	}
	embedded := make([]byte, 0, len(ciphertext)+len(tag))
	embedded = append(embedded, ciphertext...)
	embedded = append(embedded, tag...)
	return bitcodec.Unpack(embedded), nil
}

// padToLadder appends ASCII spaces to the canonical JSON plaintext
// until the total embedded size (after Reed-Solomon expansion, plus
// the AEAD tag) lands exactly on a rung of the extractor's size
// ladder. JSON tolerates trailing whitespace, so the padding never
// reaches the parsed field map. Without it, payload sizes falling
// between rungs could never be recovered: the extractor only ever
// tries ladder sizes.
func padToLadder(plaintext []byte, codec *ecc.Codec) ([]byte, error) {
	onLadder := make(map[int]bool)
	for _, s := range sizeLadder(maxLadderBytes) {
		onLadder[s] = true
	}
	for pad := 0; ; pad++ {
		total := codec.EncodedLen(len(plaintext)+pad) + aead.TagSize
		if total > maxLadderBytes {
			return nil, ErrPayloadTooLarge
		}
		if onLadder[total] {
			padded := make([]byte, len(plaintext)+pad)
			copy(padded, plaintext)
			for i := len(plaintext); i < len(padded); i++ {
				padded[i] = ' '
			}
			return padded, nil
		}
	}
}

// computePSNR measures the standard RGB peak signal-to-noise ratio
// between the original image and the watermarked output.
func computePSNR(orig image.Image, out *image.NRGBA, w, h int) float64 {
	bounds := orig.Bounds()
	var sumSq float64
	var n float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r1, g1, b1, _ := orig.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := out.PixOffset(x, y)
			r2, g2, b2 := out.Pix[i+0], out.Pix[i+1], out.Pix[i+2]

			dr := float64(r1>>8) - float64(r2)
			dg := float64(g1>>8) - float64(g2)
			db := float64(b1>>8) - float64(b2)
			sumSq += dr*dr + dg*dg + db*db
			n += 3
		}
	}
	if sumSq == 0 {
		return math.Inf(1)
	}
	mse := sumSq / n
	return 10 * math.Log10(255*255/mse)
}
