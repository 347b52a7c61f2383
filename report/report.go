// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package report formats the result of an embed or extract call as a
// JSON document suitable for handing to a compliance pipeline or
// uploading-platform moderation queue, including the EU AI Act fields
// (synthetic_content, eu_ai_act, model_provider) and a suggested
// display label for social platforms.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/truthmark/truthmark-go/integrator"
)

// Compliance is the EU-AI-Act-style block a payload may carry under the
// "ai_compliance" field. All fields are optional; a payload that never
// set them renders as the zero value.
type Compliance struct {
	EUAIAct          bool   `json:"eu_ai_act"`
	SyntheticContent bool   `json:"synthetic_content"`
	ModelProvider    string `json:"model_provider,omitempty"`
}

// complianceFrom reads an "ai_compliance" sub-object out of a decoded
// payload field map, tolerating its absence or a malformed shape.
func complianceFrom(fields map[string]any) Compliance {
	var c Compliance
	raw, ok := fields["ai_compliance"].(map[string]any)
	if !ok {
		return c
	}
	if v, ok := raw["eu_ai_act"].(bool); ok {
		c.EUAIAct = v
	}
	if v, ok := raw["synthetic_content"].(bool); ok {
		c.SyntheticContent = v
	}
	if v, ok := raw["model_provider"].(string); ok {
		c.ModelProvider = v
	}
	return c
}

// EmbedReport documents a completed Embed call for an audit trail.
type EmbedReport struct {
	GeneratedAt     string     `json:"generated_at"`
	AITool          string     `json:"ai_tool,omitempty"`
	TruthMarkID     string     `json:"truthmark_id,omitempty"`
	Timestamp       string     `json:"timestamp,omitempty"`
	PSNRdB          float64    `json:"quality_psnr_db"`
	SitesUsed       int        `json:"embedding_locations"`
	Compliance      Compliance `json:"ai_compliance"`
	TamperResistant bool       `json:"tamper_resistant"`
	Encrypted       bool       `json:"encrypted"`
}

// FromIntegratorResult builds an EmbedReport from a successful
// integrator.Result, the shape produced by AI-generation-tool
// integrations.
func FromIntegratorResult(r integrator.Result) EmbedReport {
	return EmbedReport{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		AITool:          r.AITool,
		TruthMarkID:     r.TruthMarkID,
		Timestamp:       r.Timestamp,
		PSNRdB:          r.PSNRdB,
		SitesUsed:       r.EmbeddingLocations,
		Compliance:      complianceFrom(r.Fields),
		TamperResistant: true,
		Encrypted:       true,
	}
}

// ExtractReport documents a completed Extract call for a moderation or
// verification pipeline.
type ExtractReport struct {
	Detected        bool       `json:"detected"`
	GeneratedAt     string     `json:"generated_at"`
	AIGenerated     bool       `json:"ai_generated"`
	AITool          string     `json:"ai_tool,omitempty"`
	TruthMarkID     string     `json:"truthmark_id,omitempty"`
	Timestamp       string     `json:"timestamp,omitempty"`
	ErrorsCorrected int        `json:"errors_corrected"`
	RequiresLabel   bool       `json:"requires_label"`
	SuggestedLabel  string     `json:"suggested_label,omitempty"`
	Compliant       bool       `json:"compliant"`
	Compliance      Compliance `json:"ai_compliance"`
}

// FromExtractResult builds an ExtractReport from the raw return values
// of truthmark.Extract. detected=false renders a report documenting
// absence, never an error.
func FromExtractResult(fields map[string]any, errorsCorrected int, detected bool) ExtractReport {
	r := ExtractReport{
		Detected:        detected,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		ErrorsCorrected: errorsCorrected,
	}
	if !detected {
		return r
	}

	if v, ok := fields["ai_generated"].(bool); ok {
		r.AIGenerated = v
	}
	if v, ok := fields["ai_tool"].(string); ok {
		r.AITool = v
	}
	if v, ok := fields["truthmark_id"].(string); ok {
		r.TruthMarkID = v
	}
	if v, ok := fields["timestamp"].(string); ok {
		r.Timestamp = v
	}

	r.Compliance = complianceFrom(fields)
	r.RequiresLabel = r.Compliance.SyntheticContent
	r.Compliant = r.Compliance.EUAIAct

	if r.AIGenerated {
		if r.AITool != "" {
			r.SuggestedLabel = fmt.Sprintf("AI Generated by %s", r.AITool)
		} else {
			r.SuggestedLabel = "AI Generated Content"
		}
	}
	return r
}

// JSON renders v (an EmbedReport or ExtractReport) as indented JSON.
func JSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
