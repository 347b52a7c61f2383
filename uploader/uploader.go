// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package uploader is a minimal HTTP client that POSTs a watermarked
// image to a remote collection endpoint and reports the outcome.
// truthmark's own Embed/Extract are the mechanism; this package only
// ships bytes over the wire.
package uploader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/truthmark/truthmark-go/imageio"
)

// Client POSTs watermarked images to a remote collection endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a Client targeting baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithToken returns a copy of the Client that sends token as a bearer
// credential on every request.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, httpClient: c.httpClient, token: token}
}

// UploadResult is what the remote endpoint reported about an upload.
type UploadResult struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// APIError is returned when the remote endpoint responds with a
// status of 400 or above.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("uploader: remote returned %d: %s", e.StatusCode, e.Message)
}

// Upload POSTs img, encoded in format, to path under the client's base
// URL, along with the caller-supplied metadata fields as a sibling JSON
// part.
func (c *Client) Upload(path string, img image.Image, format imageio.Format, metadata map[string]any) (*UploadResult, error) {
	var imgBuf bytes.Buffer
	if err := imageio.Encode(&imgBuf, img, format); err != nil {
		return nil, fmt.Errorf("uploader: encode image: %w", err)
	}

	envelope := struct {
		Image    []byte         `json:"image"`
		Format   string         `json:"format"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		Image:    imgBuf.Bytes(),
		Format:   format.String(),
		Metadata: metadata,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("uploader: marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("uploader: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploader: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("uploader: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return nil, apiErr
	}

	var result UploadResult
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("uploader: decode response: %w", err)
		}
	}
	return &result, nil
}
