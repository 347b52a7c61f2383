// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package report

import (
	"encoding/json"
	"testing"
)

func TestFromExtractResultDetected(t *testing.T) {
	fields := map[string]any{
		"ai_generated": true,
		"ai_tool":      "StableDiffusion v2.1",
		"truthmark_id": "8f14e45f-ceea-467e-b3f3-ab4c3a0e8d2f",
		"timestamp":    "2026-07-29T12:00:00Z",
		"ai_compliance": map[string]any{
			"eu_ai_act":         true,
			"synthetic_content": true,
			"model_provider":    "Acme",
		},
	}

	r := FromExtractResult(fields, 3, true)
	if !r.Detected {
		t.Fatalf("Detected = false")
	}
	if r.ErrorsCorrected != 3 {
		t.Fatalf("ErrorsCorrected = %d, want 3", r.ErrorsCorrected)
	}
	if r.SuggestedLabel != "AI Generated by StableDiffusion v2.1" {
		t.Fatalf("SuggestedLabel = %q", r.SuggestedLabel)
	}
	if !r.RequiresLabel || !r.Compliant {
		t.Fatalf("RequiresLabel=%v Compliant=%v, want both true", r.RequiresLabel, r.Compliant)
	}
	if r.Compliance.ModelProvider != "Acme" {
		t.Fatalf("ModelProvider = %q", r.Compliance.ModelProvider)
	}
}

func TestFromExtractResultGenericLabel(t *testing.T) {
	r := FromExtractResult(map[string]any{"ai_generated": true}, 0, true)
	if r.SuggestedLabel != "AI Generated Content" {
		t.Fatalf("SuggestedLabel = %q", r.SuggestedLabel)
	}
}

func TestFromExtractResultNotDetected(t *testing.T) {
	r := FromExtractResult(nil, 0, false)
	if r.Detected {
		t.Fatalf("Detected = true for an absent watermark")
	}
	if r.SuggestedLabel != "" || r.RequiresLabel {
		t.Fatalf("absence report carries label fields: %+v", r)
	}
}

func TestJSONRendersValidDocument(t *testing.T) {
	r := FromExtractResult(map[string]any{"ai_generated": true}, 1, true)
	out, err := JSON(r)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	if decoded["detected"] != true {
		t.Fatalf("decoded[detected] = %v", decoded["detected"])
	}
}
