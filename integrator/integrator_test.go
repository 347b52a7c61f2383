// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package integrator

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	truthmark "github.com/truthmark/truthmark-go"
)

func coverImage(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + (x+y)%40)})
		}
	}
	return img
}

func TestEmbedRoundTrip(t *testing.T) {
	in := New("StableDiffusion", "v2.1")
	in.Config.DisableSaliency = true

	result, err := in.Embed(coverImage(256), map[string]any{"seed": float64(42)}, "user-7", "prompt-hash")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "StableDiffusion v2.1", result.AITool)
	assert.Len(t, result.TruthMarkID, 36)
	assert.Len(t, result.Key, truthmark.KeySize)
	assert.NotNil(t, result.Watermarked)

	fields, _, detected, err := truthmark.Extract(result.Watermarked, result.Key, truthmark.ExtractConfig{})
	require.NoError(t, err)
	require.True(t, detected)
	assert.Equal(t, true, fields["ai_generated"])
	assert.Equal(t, "StableDiffusion v2.1", fields["ai_tool"])
	assert.Equal(t, result.TruthMarkID, fields["truthmark_id"])
	assert.Equal(t, "user-7", fields["custom_user_id"])
	assert.Equal(t, "prompt-hash", fields["custom_prompt_hash"])
	assert.Equal(t, map[string]any{"seed": float64(42)}, fields["custom_metadata"])
}

func TestMandatoryFailureIsError(t *testing.T) {
	in := New("TestTool", "")

	// 16x16 is below the 64x64 minimum, so the embed must fail, and with
	// Required=true that failure is fatal.
	_, err := in.Embed(coverImage(16), nil, "", "")
	require.Error(t, err)

	var mwe *MandatoryWatermarkError
	require.True(t, errors.As(err, &mwe))
	assert.Equal(t, "TestTool unknown", mwe.AITool)
	assert.ErrorIs(t, err, truthmark.ErrImageTooSmall)
}

func TestOptionalFailureIsResult(t *testing.T) {
	in := New("TestTool", "v1")
	in.Required = false

	result, err := in.Embed(coverImage(16), nil, "", "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestEmbedMandatoryPanics(t *testing.T) {
	in := New("TestTool", "v1")
	defer func() {
		recovered := recover()
		require.NotNil(t, recovered, "EmbedMandatory did not panic on failure")
		_, ok := recovered.(*MandatoryWatermarkError)
		assert.True(t, ok)
	}()
	in.EmbedMandatory(coverImage(16), nil, "", "")
}

func TestEmbedBatch(t *testing.T) {
	in := New("BatchTool", "v1")
	in.Config.DisableSaliency = true

	imgs := []image.Image{coverImage(128), coverImage(128)}
	results, err := in.EmbedBatch(imgs, []map[string]any{{"n": float64(1)}}, []string{"u1", "u2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.NotEqual(t, results[0].TruthMarkID, results[1].TruthMarkID)
	assert.NotEqual(t, results[0].Key, results[1].Key)
}
