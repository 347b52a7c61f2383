// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/truthmark/truthmark-go/imageio"
	"github.com/truthmark/truthmark-go/uploader"
)

var uploadCmd = &cobra.Command{
	Use:   "upload INPUT",
	Short: "Upload a watermarked image to a collection endpoint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.Fatalf("upload: %v", err)
		}
		if err := runUpload(args[0]); err != nil {
			log.Fatalf("upload: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().String("endpoint", "", "base URL of the collection service")
	uploadCmd.Flags().String("token", "", "bearer token for the collection service")
	uploadCmd.Flags().String("metadata", "", "sidecar metadata as a JSON object")
}

func runUpload(inputPath string) error {
	endpoint := viper.GetString("endpoint")
	if endpoint == "" {
		return fmt.Errorf("no endpoint: pass --endpoint or set TRUTHMARK_ENDPOINT")
	}

	var metadata map[string]any
	if s := viper.GetString("metadata"); s != "" {
		if err := json.Unmarshal([]byte(s), &metadata); err != nil {
			return fmt.Errorf("--metadata is not a JSON object: %w", err)
		}
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()
	img, format, err := imageio.Decode(in)
	if err != nil {
		return err
	}

	client := uploader.New(endpoint)
	if token := viper.GetString("token"); token != "" {
		client = client.WithToken(token)
	}

	result, err := client.Upload("/v1/images", img, format, metadata)
	if err != nil {
		return err
	}
	log.Printf("uploaded %s: status=%s id=%s", inputPath, result.Status, result.ID)
	return nil
}
