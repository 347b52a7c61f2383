// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package imageio decodes and re-encodes the raster image files that
// carry a truthmark watermark, preserving the original container
// format. It is a thin adapter around the standard library: truthmark
// itself only knows about in-memory image.Image values, never files.
//
// The watermark needs nothing special from a container: any standard
// encoder (PNG lossless, JPEG at quality 70 or above) can carry it,
// so this package sits directly on image/png and image/jpeg.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

// Format identifies which container a Decode call found, so Encode can
// round-trip to the same format by default.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned by Decode when the input is neither
// a PNG nor a JPEG.
var ErrUnsupportedFormat = errors.New("imageio: unsupported image format")

// Decode reads an image and reports which container format it was
// encoded in, so a later Encode call can preserve it.
func Decode(r io.Reader) (image.Image, Format, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("imageio: read: %w", err)
	}
	_, formatName, err := image.DecodeConfig(bytes.NewReader(buf))
	if errors.Is(err, image.ErrFormat) {
		return nil, FormatUnknown, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("imageio: decode config: %w", err)
	}

	var format Format
	switch formatName {
	case "png":
		format = FormatPNG
	case "jpeg":
		format = FormatJPEG
	default:
		return nil, FormatUnknown, ErrUnsupportedFormat
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("imageio: decode: %w", err)
	}
	return img, format, nil
}

// JPEGQuality is the quality factor used when Encode writes a JPEG:
// a safe margin above the quality-70 floor the watermark is rated to
// survive.
const JPEGQuality = 85

// Encode writes img to w in the given format. FormatUnknown defaults
// to PNG, the lossless choice, since re-encoding a watermarked image
// as JPEG below quality 70 is documented as outside the format's
// robustness contract.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	default:
		return png.Encode(w, img)
	}
}
