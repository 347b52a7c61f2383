// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package integrator is the policy façade AI generation tools embed
// into their output pipeline so that every generated image carries a
// watermark, unconditionally. Where the truthmark package itself is a
// pure mechanism (Embed succeeds or fails on its own terms), Integrator
// decides what happens to that failure: when Required is true — the
// default — a failed embed is fatal, and the caller never receives an
// unwatermarked image.
package integrator

import (
	"crypto/rand"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	truthmark "github.com/truthmark/truthmark-go"
)

// Integrator embeds provenance metadata into every image an AI
// generation tool produces.
type Integrator struct {
	// AITool names the generating tool, e.g. "StableDiffusion".
	AITool string
	// Version is the tool's version string, e.g. "v2.1". Empty renders
	// as "unknown" in reports.
	Version string
	// Required makes watermarking mandatory: Embed returns a non-nil
	// error built around the underlying failure, and EmbedMandatory
	// panics instead of returning one, so a caller that ignores errors
	// cannot silently ship unwatermarked content.
	Required bool
	// Config is passed through to truthmark.Embed unmodified.
	Config truthmark.EmbedConfig
}

// New constructs an Integrator with watermarking mandatory by default.
func New(aiTool, version string) *Integrator {
	return &Integrator{AITool: aiTool, Version: version, Required: true}
}

// Result is what a successful or failed integration produced.
type Result struct {
	Success            bool
	Watermarked        *image.NRGBA
	TruthMarkID        string
	AITool             string
	Timestamp          string
	Fields             map[string]any
	Key                []byte
	PSNRdB             float64
	EmbeddingLocations int
	ErrorMessage       string
}

// MandatoryWatermarkError is returned (or, from EmbedMandatory, panicked
// with) when Required is true and the underlying Embed call failed. Its
// presence signals that the caller must not fall back to unwatermarked
// output.
type MandatoryWatermarkError struct {
	AITool string
	Err    error
}

func (e *MandatoryWatermarkError) Error() string {
	return fmt.Sprintf("integrator: mandatory watermarking failed for %s: %v", e.AITool, e.Err)
}

func (e *MandatoryWatermarkError) Unwrap() error { return e.Err }

// Embed watermarks img with provenance metadata describing this tool,
// generating a fresh random key and a truthmark_id. metadata is merged
// into the embedded payload under the "custom_metadata" field verbatim.
//
// If Required is true and embedding fails for any reason (the image is
// too small, the payload is too large once metadata is folded in), the
// returned error is a *MandatoryWatermarkError wrapping the cause. When
// Required is false, a failed embed instead comes back as a Result with
// Success=false, a descriptive ErrorMessage, and a nil error.
func (in *Integrator) Embed(img image.Image, metadata map[string]any, userID, promptHash string) (Result, error) {
	label := in.label()
	now := time.Now().UTC().Format(time.RFC3339)

	fields := map[string]any{
		"ai_tool":      label,
		"ai_generated": true,
		"timestamp":    now,
		"truthmark_id": uuid.New().String(),
	}
	if userID != "" {
		fields["custom_user_id"] = userID
	}
	if promptHash != "" {
		fields["custom_prompt_hash"] = promptHash
	}
	if len(metadata) > 0 {
		fields["custom_metadata"] = metadata
	}

	key := make([]byte, truthmark.KeySize)
	if _, err := rand.Read(key); err != nil {
		return in.fail(label, now, fmt.Errorf("integrator: generate key: %w", err))
	}

	watermarked, info, err := truthmark.Embed(img, fields, key, in.Config)
	if err != nil {
		return in.fail(label, now, err)
	}

	log.Printf("integrator: watermarked image from %s (PSNR: %.2f dB, TruthMark ID: %s)",
		label, info.PSNRdB, fields["truthmark_id"])
	return Result{
		Success:            true,
		Watermarked:        watermarked,
		TruthMarkID:        fields["truthmark_id"].(string),
		AITool:             label,
		Timestamp:          now,
		Fields:             fields,
		Key:                key,
		PSNRdB:             info.PSNRdB,
		EmbeddingLocations: info.NSites,
	}, nil
}

// fail records the failure on the audit log unconditionally, before
// the mandatory path turns it into an error: even a caller that drops
// or recovers from the error leaves the failure on record.
func (in *Integrator) fail(label, timestamp string, cause error) (Result, error) {
	log.Printf("integrator: failed to watermark image from %s: %v", label, cause)
	if in.Required {
		return Result{}, &MandatoryWatermarkError{AITool: label, Err: cause}
	}
	return Result{
		Success:      false,
		AITool:       label,
		Timestamp:    timestamp,
		ErrorMessage: cause.Error(),
	}, nil
}

// EmbedMandatory is Embed for callers that want the "cannot be
// bypassed" contract expressed as a panic rather than an error
// return: it panics with a *MandatoryWatermarkError on failure, so a
// generation pipeline that forgets to check an error still cannot
// ship unwatermarked output.
func (in *Integrator) EmbedMandatory(img image.Image, metadata map[string]any, userID, promptHash string) Result {
	result, err := in.Embed(img, metadata, userID, promptHash)
	if err != nil {
		panic(err)
	}
	return result
}

// EmbedBatch watermarks multiple images, one Result per input image, in
// the order given.
func (in *Integrator) EmbedBatch(imgs []image.Image, metadataList []map[string]any, userIDs []string) ([]Result, error) {
	results := make([]Result, len(imgs))
	for i, img := range imgs {
		var metadata map[string]any
		if i < len(metadataList) {
			metadata = metadataList[i]
		}
		var userID string
		if i < len(userIDs) {
			userID = userIDs[i]
		}
		result, err := in.Embed(img, metadata, userID, "")
		if err != nil {
			return results, err
		}
		results[i] = result
	}
	log.Printf("integrator: batch watermarking complete: %d images processed", len(results))
	return results, nil
}

func (in *Integrator) label() string {
	version := in.Version
	if version == "" {
		version = "unknown"
	}
	return in.AITool + " " + version
}
