// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package ecc

import "errors"

// ErrUnrecoverable is returned by Decode when a 255-byte codeword block
// carries more than NParity/2 symbol errors and cannot be corrected.
var ErrUnrecoverable = errors.New("ecc: unrecoverable block (too many errors)")

// DefaultParitySymbols is the default Reed-Solomon parity budget per
// 255-byte codeword block.
const DefaultParitySymbols = 32

// maxBlock is the classical RS(255, ...) codeword length over GF(2^8):
// the field has 255 non-zero elements, so a codeword can have at most 255
// symbols before roots of the generator polynomial start repeating.
const maxBlock = 255

// Codec encodes and decodes byte streams with a fixed parity-symbol budget
// per 255-byte codeword block (a "shortened" Reed-Solomon code: the final,
// partial block is treated as if preceded by implicit zero symbols that are
// never transmitted).
type Codec struct {
	// NParity is K, the number of parity symbols appended per block.
	// Must be in [2, 254] and even.
	NParity int
}

// New returns a Codec with the given parity-symbol budget. Out-of-range
// values (nParity <= 0, or so large no data fits in a codeword) use
// DefaultParitySymbols.
func New(nParity int) *Codec {
	if nParity <= 0 || nParity >= maxBlock {
		nParity = DefaultParitySymbols
	}
	return &Codec{NParity: nParity}
}

func (c *Codec) dataPerBlock() int {
	return maxBlock - c.NParity
}

// EncodedLen returns len(Encode(data)) for n bytes of data without
// encoding anything.
func (c *Codec) EncodedLen(n int) int {
	if n == 0 {
		return 0
	}
	dpb := c.dataPerBlock()
	nBlocks := (n + dpb - 1) / dpb
	return n + nBlocks*c.NParity
}

// Encode appends c.NParity parity symbols to each chunk of up to
// dataPerBlock() bytes of data, returning the concatenation of all chunks'
// data||parity. The final chunk may be shorter than dataPerBlock(); it is
// still tailed by a full NParity parity symbols.
func (c *Codec) Encode(data []byte) []byte {
	dpb := c.dataPerBlock()
	gen := generatorPoly(c.NParity)

	out := make([]byte, 0, len(data)+((len(data)/dpb)+1)*c.NParity)
	for len(data) > 0 {
		n := dpb
		if n > len(data) {
			n = len(data)
		}
		chunk := data[:n]
		data = data[n:]

		parity := encodeBlock(chunk, dpb, gen, c.NParity)
		out = append(out, chunk...)
		out = append(out, parity...)
	}
	return out
}

// encodeBlock computes the NParity parity symbols for a (possibly
// shortened, i.e. len(chunk) < dpb) data chunk via polynomial long
// division by the generator polynomial, as in a textbook systematic RS
// encoder. The shortened positions (dpb-len(chunk) leading zero symbols)
// are never written to the output; they only affect the arithmetic.
func encodeBlock(chunk []byte, dpb int, gen []byte, nParity int) []byte {
	msg := make([]byte, dpb+nParity)
	copy(msg[dpb-len(chunk):dpb], chunk)

	remainder := make([]byte, len(msg))
	copy(remainder, msg)
	for i := 0; i < dpb; i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j, gc := range gen {
			remainder[i+j] ^= gfMul(gc, coef)
		}
	}
	return remainder[dpb:]
}

// Decode reverses Encode, correcting up to NParity/2 symbol errors per
// block. It returns the recovered data and the total number of symbol
// errors corrected across all blocks, or ErrUnrecoverable if any block
// carries more errors than it can correct.
func (c *Codec) Decode(encoded []byte) ([]byte, int, error) {
	dpb := c.dataPerBlock()
	blockLen := dpb + c.NParity

	if len(encoded)%blockLen != 0 {
		// The final block is shortened (its data portion is < dpb), so its
		// on-the-wire length is len(lastChunk)+NParity, not blockLen. Find
		// where the last, possibly-short, block begins.
		return c.decodeWithShortFinalBlock(encoded, dpb)
	}

	out := make([]byte, 0, len(encoded))
	errorsCorrected := 0
	for i := 0; i < len(encoded); i += blockLen {
		block := encoded[i : i+blockLen]
		data, n, err := decodeBlock(block, dpb, c.NParity)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, data...)
		errorsCorrected += n
	}
	return out, errorsCorrected, nil
}

// decodeWithShortFinalBlock handles the common case where Encode's last
// chunk was shorter than dpb: every full block is blockLen bytes except
// the last, which is shortLen+NParity bytes for some 0 < shortLen < dpb.
func (c *Codec) decodeWithShortFinalBlock(encoded []byte, dpb int) ([]byte, int, error) {
	blockLen := dpb + c.NParity
	nFull := len(encoded) / blockLen
	rem := len(encoded) % blockLen
	if rem <= c.NParity {
		return nil, 0, ErrUnrecoverable
	}
	shortLen := rem - c.NParity

	out := make([]byte, 0, len(encoded))
	errorsCorrected := 0
	off := 0
	for i := 0; i < nFull; i++ {
		block := encoded[off : off+blockLen]
		off += blockLen
		data, n, err := decodeBlock(block, dpb, c.NParity)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, data...)
		errorsCorrected += n
	}

	lastBlock := encoded[off:]
	data, n, err := decodeShortenedBlock(lastBlock, shortLen, dpb, c.NParity)
	if err != nil {
		return nil, 0, err
	}
	out = append(out, data...)
	errorsCorrected += n
	return out, errorsCorrected, nil
}

func decodeBlock(block []byte, dpb, nParity int) ([]byte, int, error) {
	return decodeShortenedBlock(block, dpb, dpb, nParity)
}

// decodeShortenedBlock decodes a received block whose data portion has
// dataLen bytes (dataLen <= dpb); the missing dpb-dataLen leading symbols
// are treated as implicit, always-correct zeros.
func decodeShortenedBlock(block []byte, dataLen, dpb, nParity int) ([]byte, int, error) {
	if len(block) != dataLen+nParity {
		return nil, 0, ErrUnrecoverable
	}

	codeword := make([]byte, dpb+nParity)
	copy(codeword[dpb-dataLen:dpb], block[:dataLen])
	copy(codeword[dpb:], block[dataLen:])

	syndromes := computeSyndromes(codeword, nParity)
	if allZero(syndromes) {
		return append([]byte(nil), block[:dataLen]...), 0, nil
	}

	locator := berlekampMassey(syndromes, nParity)
	if 2*(len(locator)-1) > nParity {
		return nil, 0, ErrUnrecoverable
	}

	errPositions, ok := chienSearch(locator, len(codeword))
	if !ok || len(errPositions) != len(locator)-1 {
		return nil, 0, ErrUnrecoverable
	}

	magnitudes := forney(syndromes, locator, errPositions, len(codeword))
	for i, pos := range errPositions {
		if pos < dpb-dataLen {
			// The error landed on an implicit, never-transmitted zero
			// symbol: the codeword we constructed is not the one that was
			// actually sent, so correction is not meaningful.
			return nil, 0, ErrUnrecoverable
		}
		codeword[pos] ^= magnitudes[i]
	}

	// Re-verify: a successful correction makes every syndrome vanish.
	if !allZero(computeSyndromes(codeword, nParity)) {
		return nil, 0, ErrUnrecoverable
	}

	return append([]byte(nil), codeword[dpb-dataLen:dpb]...), len(errPositions), nil
}

func allZero(s []byte) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// computeSyndromes evaluates the received codeword (highest-degree
// coefficient first) at gen^1..gen^nParity.
func computeSyndromes(codeword []byte, nParity int) []byte {
	syn := make([]byte, nParity)
	for j := 0; j < nParity; j++ {
		syn[j] = polyEval(codeword, gfPow(2, j+1))
	}
	return syn
}

// berlekampMassey finds the shortest linear feedback shift register (the
// error locator polynomial, highest-degree first, constant term 1) that
// generates the syndrome sequence.
func berlekampMassey(syndromes []byte, nParity int) []byte {
	c := make([]byte, 1, nParity+1)
	c[0] = 1
	b := make([]byte, 1, nParity+1)
	b[0] = 1

	l := 0
	m := 1
	bCoef := byte(1)

	for n := 0; n < len(syndromes); n++ {
		delta := syndromes[n]
		for i := 1; i <= l && i < len(c); i++ {
			delta ^= gfMul(c[i], syndromes[n-i])
		}
		if delta == 0 {
			m++
			continue
		}
		t := append([]byte(nil), c...)
		coef := gfDiv(delta, bCoef)
		// shifted = coef * x^m * b(x), lowest-degree-first.
		shifted := make([]byte, len(b)+m)
		for i, bc := range b {
			shifted[m+i] = gfMul(bc, coef)
		}
		if len(shifted) > len(c) {
			grown := make([]byte, len(shifted))
			copy(grown, c)
			c = grown
		}
		for i := range shifted {
			c[i] ^= shifted[i]
		}
		if 2*l <= n {
			l = n + 1 - l
			b = t
			bCoef = delta
			m = 1
		} else {
			m++
		}
	}

	// Trim trailing zero coefficients so len(out)-1 is the true degree;
	// decodeShortenedBlock compares it against the Chien root count.
	end := len(c)
	for end > 1 && c[end-1] == 0 {
		end--
	}
	c = c[:end]

	// c is stored lowest-degree-first above; reverse to highest-degree-first
	// to match polyEval's convention used elsewhere in this package.
	out := make([]byte, len(c))
	for i, v := range c {
		out[len(c)-1-i] = v
	}
	return out
}

// chienSearch finds the roots of the error locator polynomial by brute
// force evaluation at every field element's inverse, returning the
// corresponding error positions (0-indexed from the start of a
// codewordLen-symbol codeword, highest-degree-first).
func chienSearch(locator []byte, codewordLen int) ([]int, bool) {
	var positions []int
	for i := 0; i < codewordLen; i++ {
		// Position i (from the start, highest-degree-first) corresponds to
		// exponent (codewordLen-1-i) in the standard root convention
		// alpha^-i; evaluate the locator at alpha^-(codewordLen-1-i).
		exp := codewordLen - 1 - i
		x := gfInverse(gfPow(2, exp))
		if polyEval(locator, x) == 0 {
			positions = append(positions, i)
		}
	}
	return positions, true
}

// forney computes the error magnitude at each located position using the
// syndrome polynomial, the error locator, and the error evaluator
// polynomial.
func forney(syndromes, locator []byte, positions []int, codewordLen int) []byte {
	// Syndrome polynomial, highest-degree-first: S(x) = s_n x^{n-1} + ... + s_1.
	synPoly := make([]byte, len(syndromes))
	for i, s := range syndromes {
		synPoly[len(syndromes)-1-i] = s
	}

	// Error evaluator Omega(x) = S(x) * Lambda(x) mod x^nParity, truncated
	// to the low-order nParity terms (locator is highest-degree-first too,
	// so the product is also highest-degree-first before truncation).
	product := polyMul(synPoly, locator)
	if len(product) > len(syndromes) {
		product = product[len(product)-len(syndromes):]
	}
	omega := product

	// Lambda'(x), the formal derivative of the locator (odd-power terms
	// only survive in GF(2^8), since char 2 kills even derivatives).
	lambdaPrimeCoeffs := derivative(locator)

	magnitudes := make([]byte, len(positions))
	for i, pos := range positions {
		// The error at position pos has locator value X = gen^exp; the
		// corresponding root of Lambda found by chienSearch is X^-1, and
		// Forney's formula evaluates both polynomials there:
		// e_pos = X^{1-b} * Omega(X^-1) / Lambda'(X^-1), with b=1 for
		// this generator-root convention, so the X^{1-b} factor is 1.
		exp := codewordLen - 1 - pos
		root := gfInverse(gfPow(2, exp))

		numerator := polyEval(omega, root)
		denominator := polyEval(lambdaPrimeCoeffs, root)
		if denominator == 0 {
			magnitudes[i] = 0
			continue
		}
		magnitudes[i] = gfDiv(numerator, denominator)
	}
	return magnitudes
}

// derivative returns the formal derivative of poly (highest-degree-first).
// Over a characteristic-2 field only odd-degree terms survive: the term
// c*x^p differentiates to (p mod 2)*c*x^{p-1}.
func derivative(poly []byte) []byte {
	deg := len(poly) - 1
	if deg <= 0 {
		return []byte{0}
	}
	out := make([]byte, deg) // degrees deg-1 .. 0, highest-degree-first.
	for i, coef := range poly {
		power := deg - i
		if power%2 == 1 {
			out[len(out)-power] = coef
		}
	}
	return out
}
