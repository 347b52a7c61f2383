// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package ecc implements Reed-Solomon error-correcting codes over GF(2^8),
// with a configurable parity-symbol budget per 255-byte block.
package ecc

// The field is GF(2^8) with the primitive polynomial x^8 + x^4 + x^3 + x^2 + 1
// (0x11D), the same generator used by QR codes, CDs and most RS tutorials.
const primitivePoly = 0x11D

var expTable [512]byte // exp[i] = gen^i, doubled so indices don't wrap.
var logTable [256]byte // log[gen^i] = i, log[0] is unused.

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		expTable[i] = byte(x)
		logTable[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= primitivePoly
		}
	}
	for i := 255; i < 512; i++ {
		expTable[i] = expTable[i-255]
	}
}

func gfAdd(a, b byte) byte { return a ^ b }

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	// b == 0 is a precondition violation; callers never pass it.
	li := int(logTable[a]) - int(logTable[b])
	if li < 0 {
		li += 255
	}
	return expTable[li]
}

func gfPow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	li := (int(logTable[a]) * n) % 255
	if li < 0 {
		li += 255
	}
	return expTable[li]
}

func gfInverse(a byte) byte {
	return expTable[255-int(logTable[a])]
}

// polyEval evaluates poly (coefficients highest-degree first) at x.
func polyEval(poly []byte, x byte) byte {
	y := poly[0]
	for i := 1; i < len(poly); i++ {
		y = gfMul(y, x) ^ poly[i]
	}
	return y
}

// polyMul multiplies two polynomials, coefficients highest-degree first.
func polyMul(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i, ac := range a {
		if ac == 0 {
			continue
		}
		for j, bc := range b {
			out[i+j] ^= gfMul(ac, bc)
		}
	}
	return out
}

// generatorPoly returns the RS generator polynomial of degree nParity:
// prod_{i=1}^{nParity} (x - gen^i). The roots gen^1..gen^nParity are the
// same points computeSyndromes evaluates at; the two must agree or a
// clean codeword would not syndrome to zero.
func generatorPoly(nParity int) []byte {
	g := []byte{1}
	for i := 1; i <= nParity; i++ {
		g = polyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}
