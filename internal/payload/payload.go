// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package payload builds and parses the canonical cleartext JSON object
// carried by the watermark: a fixed field set (plus open-ended custom_*
// and ai_compliance extensions), emitted as compact JSON with
// lexicographically sorted keys so that encoding is a pure, stable
// function of the field map.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// KnownFields are the documented, stable field names. Fields outside this
// set (besides any "custom_" prefix) are preserved on round-trip but are
// not otherwise interpreted.
var KnownFields = []string{
	"copyright",
	"author",
	"ai_tool",
	"ai_generated",
	"truthmark_id",
	"timestamp",
	"ai_compliance",
}

// Build emits fields as compact (no whitespace) JSON with keys sorted
// lexicographically, so the same field map always yields the same bytes.
func Build(fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("payload: marshal key %q: %w", k, err)
		}
		valJSON, err := json.Marshal(fields[k])
		if err != nil {
			return nil, fmt.Errorf("payload: marshal field %q: %w", k, err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse is the inverse of Build: it decodes a canonical JSON object back
// into a field map. Unknown fields are preserved verbatim.
func Parse(data []byte) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("payload: parse: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("payload: trailing data after JSON object")
	}
	return fields, nil
}
