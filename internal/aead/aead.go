// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package aead implements the watermark codec's authenticated symmetric
// cipher: AES-256-CTR for confidentiality, HMAC-SHA256 for a 32-byte tag,
// combined Encrypt-then-MAC. The nonce is derived deterministically from
// the key via HKDF-SHA256, rather than drawn at random, so that the same
// plaintext embedded twice under the same key produces bit-identical
// ciphertext. The flip side: two different plaintexts sealed under one
// key share a keystream, so deployments must rotate keys or accept that
// equal plaintext prefixes are linkable.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required symmetric key length in bytes.
const KeySize = 32

// TagSize is the HMAC-SHA256 tag length in bytes.
const TagSize = sha256.Size // 32

// ErrInvalidKeySize is returned when the key is not KeySize bytes.
var ErrInvalidKeySize = errors.New("aead: invalid key size, must be 32 bytes")

// ErrAuthFail is returned by Decrypt when the tag does not verify.
var ErrAuthFail = errors.New("aead: authentication failed")

const (
	hkdfNonceInfo = "truthmark-aead-nonce-v1"
	hkdfMACInfo   = "truthmark-aead-mac-key-v1"
)

// deriveNonce derives a 16-byte AES-CTR nonce deterministically from key,
// via HKDF-SHA256 (RFC 5869).
func deriveNonce(key []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, key, nil, []byte(hkdfNonceInfo))
	nonce := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(reader, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// deriveMACKey derives a separate 32-byte key for HMAC, so the same key
// material is never used for both the cipher and the MAC.
func deriveMACKey(key []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, key, nil, []byte(hkdfMACInfo))
	macKey := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, macKey); err != nil {
		return nil, err
	}
	return macKey, nil
}

// Encrypt encrypts plaintext under key, returning (ciphertext, tag).
// |ciphertext| == |plaintext| and |tag| == 32, always.
func Encrypt(key, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := deriveNonce(key)
	if err != nil {
		return nil, nil, err
	}
	stream := cipher.NewCTR(block, nonce)

	ciphertext = make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)

	macKey, err := deriveMACKey(key)
	if err != nil {
		return nil, nil, err
	}
	tag = computeTag(macKey, nonce, ciphertext)
	return ciphertext, tag, nil
}

// Decrypt verifies tag against (key, ciphertext) and, if it matches,
// returns the decrypted plaintext. It fails with ErrAuthFail when the tag
// does not verify — the sole gate the blind length-search extractor
// relies on.
func Decrypt(key, ciphertext, tag []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(tag) != TagSize {
		return nil, ErrAuthFail
	}

	nonce, err := deriveNonce(key)
	if err != nil {
		return nil, err
	}
	macKey, err := deriveMACKey(key)
	if err != nil {
		return nil, err
	}

	expected := computeTag(macKey, nonce, ciphertext)
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, ErrAuthFail
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(block, nonce)
	plaintext := make([]byte, len(ciphertext))
	stream.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// computeTag returns HMAC-SHA256(macKey, nonce || ciphertext).
func computeTag(macKey, nonce, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(nonce)
	h.Write(ciphertext)
	return h.Sum(nil)
}
