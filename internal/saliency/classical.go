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
	"image"
	"image/color"
	"math"
	"math/cmplx"
)

// Classical is a dependency-free saliency backend: a blend of Sobel
// gradient magnitude, spectral residual saliency (Hou & Zhang, 2007), and
// local edge density, each normalized to [0,1] and averaged.
//
// Pixel extraction type-switches on image.Gray and image.YCbCr for
// direct fast paths; anything else falls back to the generic
// image.Image.At.
type Classical struct{}

func (Classical) Detect(img image.Image) ([]float32, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := toGray(img, bounds)

	gradient := sobelMagnitude(gray, w, h)
	spectral := spectralResidual(gray, w, h)
	edges := edgeDensity(gradient, w, h)

	gradient = normalize(gradient)
	spectral = normalize(spectral)
	edges = normalize(edges)

	out := make([]float32, w*h)
	for i := range out {
		out[i] = clamp01((gradient[i] + spectral[i] + edges[i]) / 3)
	}
	return out, nil
}

// toGray extracts a row-major luma plane in [0,1].
func toGray(img image.Image, bounds image.Rectangle) []float32 {
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]float32, w*h)
	mGray, isGray := img.(*image.Gray)
	mYCbCr, isYCbCr := img.(*image.YCbCr)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			var yVal uint8
			switch {
			case isGray:
				yVal = mGray.GrayAt(px, py).Y
			case isYCbCr:
				yVal = mYCbCr.YCbCrAt(px, py).Y
			default:
				r, g, b, _ := img.At(px, py).RGBA()
				yy, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
				yVal = yy
			}
			out[y*w+x] = float32(yVal) / 255
		}
	}
	return out
}

// sobelMagnitude computes the Sobel gradient magnitude at each pixel,
// clamping to the nearest interior pixel at the border.
func sobelMagnitude(gray []float32, w, h int) []float32 {
	out := make([]float32, w*h)
	at := func(x, y int) float32 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return gray[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			out[y*w+x] = float32(math.Hypot(float64(gx), float64(gy)))
		}
	}
	return out
}

// edgeDensity is a local box-filtered average of the gradient magnitude,
// approximating "how much edge activity surrounds this pixel".
func edgeDensity(gradient []float32, w, h int) []float32 {
	const radius = 2
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			var count int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					sum += gradient[ny*w+nx]
					count++
				}
			}
			if count > 0 {
				out[y*w+x] = sum / float32(count)
			}
		}
	}
	return out
}

// spectralWorkSize is the fixed resolution the spectral residual is
// computed at. Hou & Zhang's detector downsamples every input to a
// small working image first (the residual is a coarse, global signal),
// which also keeps the direct 2D DFT below tractable: at 64x64 it is a
// few million complex multiplies regardless of the input size.
const spectralWorkSize = 64

// spectralResidual implements the classical spectral residual saliency
// detector: transform to the frequency domain, subtract a smoothed log
// amplitude spectrum from the actual log amplitude spectrum (the
// "residual"), then transform back and smooth. The computation runs on
// a spectralWorkSize-square downsample and the result is bilinearly
// resized back up to w x h.
func spectralResidual(gray []float32, w, h int) []float32 {
	sw, sh := spectralWorkSize, spectralWorkSize
	if w < sw {
		sw = w
	}
	if h < sh {
		sh = h
	}
	small := resizeBilinear(gray, w, h, sw, sh)

	spectrum := dft2D(small, sw, sh)

	logAmplitude := make([]float64, sw*sh)
	phase := make([]float64, sw*sh)
	for i, c := range spectrum {
		amp := cmplx.Abs(c)
		if amp < 1e-12 {
			amp = 1e-12
		}
		logAmplitude[i] = math.Log(amp)
		phase[i] = cmplx.Phase(c)
	}

	smoothed := boxBlur(logAmplitude, sw, sh, 3)
	residual := make([]float64, sw*sh)
	for i := range residual {
		residual[i] = logAmplitude[i] - smoothed[i]
	}

	recombined := make([]complex128, sw*sh)
	for i, r := range residual {
		mag := math.Exp(r)
		recombined[i] = cmplx.Rect(mag, phase[i])
	}

	saliencyMap := idft2D(recombined, sw, sh)
	smallOut := make([]float32, sw*sh)
	for i, c := range saliencyMap {
		v := real(c) * real(c) // squared magnitude per Hou & Zhang.
		smallOut[i] = float32(v)
	}
	smallOut = boxBlurFloat32(smallOut, sw, sh, 3)

	return resizeBilinear(smallOut, sw, sh, w, h)
}

// resizeBilinear resamples a row-major plane from srcW x srcH to
// dstW x dstH.
func resizeBilinear(src []float32, srcW, srcH, dstW, dstH int) []float32 {
	if srcW == dstW && srcH == dstH {
		return append([]float32(nil), src...)
	}
	out := make([]float32, dstW*dstH)
	xScale := float64(srcW) / float64(dstW)
	yScale := float64(srcH) / float64(dstH)
	for y := 0; y < dstH; y++ {
		sy := (float64(y)+0.5)*yScale - 0.5
		y0 := int(math.Floor(sy))
		fy := sy - float64(y0)
		y1 := y0 + 1
		if y0 < 0 {
			y0, y1, fy = 0, 0, 0
		}
		if y1 >= srcH {
			y1 = srcH - 1
		}
		for x := 0; x < dstW; x++ {
			sx := (float64(x)+0.5)*xScale - 0.5
			x0 := int(math.Floor(sx))
			fx := sx - float64(x0)
			x1 := x0 + 1
			if x0 < 0 {
				x0, x1, fx = 0, 0, 0
			}
			if x1 >= srcW {
				x1 = srcW - 1
			}
			top := float64(src[y0*srcW+x0])*(1-fx) + float64(src[y0*srcW+x1])*fx
			bot := float64(src[y1*srcW+x0])*(1-fx) + float64(src[y1*srcW+x1])*fx
			out[y*dstW+x] = float32(top*(1-fy) + bot*fy)
		}
	}
	return out
}

func dft2D(data []float32, w, h int) []complex128 {
	out := make([]complex128, w*h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			var sum complex128
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					angle := -2 * math.Pi * (float64(u*x)/float64(w) + float64(v*y)/float64(h))
					sum += complex(float64(data[y*w+x]), 0) * cmplx.Rect(1, angle)
				}
			}
			out[v*w+u] = sum
		}
	}
	return out
}

func idft2D(data []complex128, w, h int) []complex128 {
	out := make([]complex128, w*h)
	n := float64(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum complex128
			for v := 0; v < h; v++ {
				for u := 0; u < w; u++ {
					angle := 2 * math.Pi * (float64(u*x)/float64(w) + float64(v*y)/float64(h))
					sum += data[v*w+u] * cmplx.Rect(1, angle)
				}
			}
			out[y*w+x] = sum / complex(n, 0)
		}
	}
	return out
}

func boxBlur(data []float64, w, h, radius int) []float64 {
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			var count int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					sum += data[ny*w+nx]
					count++
				}
			}
			out[y*w+x] = sum / float64(count)
		}
	}
	return out
}

func boxBlurFloat32(data []float32, w, h, radius int) []float32 {
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			var count int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					sum += data[ny*w+nx]
					count++
				}
			}
			out[y*w+x] = sum / float32(count)
		}
	}
	return out
}
