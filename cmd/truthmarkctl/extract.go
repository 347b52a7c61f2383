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

	truthmark "github.com/truthmark/truthmark-go"
	"github.com/truthmark/truthmark-go/imageio"
	"github.com/truthmark/truthmark-go/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract INPUT",
	Short: "Recover the provenance payload from a watermarked image",
	Long: `extract searches INPUT for a watermark sealed under the given key and
prints the recovered payload as JSON. A missing or unreadable watermark
is reported as {"detected": false} with exit status 2, distinguishing
"nothing there" from hard failures (bad file, bad key), which exit 1.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.Fatalf("extract: %v", err)
		}
		detected, err := runExtract(args[0])
		if err != nil {
			log.Fatalf("extract: %v", err)
		}
		if !detected {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Int("ecc-symbols", 0, "Reed-Solomon parity symbols per block; must match embedding (0 = default 32)")
	extractCmd.Flags().Int("max-payload-bytes", 0, "upper bound for the length search (0 = default 2000)")
	extractCmd.Flags().Bool("compliance-report", false, "print a full compliance report instead of the raw payload")
}

func runExtract(inputPath string) (bool, error) {
	key, err := loadKey()
	if err != nil {
		return false, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return false, err
	}
	defer in.Close()
	img, _, err := imageio.Decode(in)
	if err != nil {
		return false, err
	}

	cfg := truthmark.ExtractConfig{
		EccSymbols:      viper.GetInt("ecc-symbols"),
		MaxPayloadBytes: viper.GetInt("max-payload-bytes"),
	}

	fields, confidence, detected, err := truthmark.Extract(img, key, cfg)
	if err != nil {
		return false, err
	}

	if viper.GetBool("compliance-report") {
		r := report.FromExtractResult(fields, confidence.ErrorsCorrected, detected)
		out, err := report.JSON(r)
		if err != nil {
			return detected, err
		}
		fmt.Println(string(out))
		return detected, nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"detected":         detected,
		"fields":           fields,
		"errors_corrected": confidence.ErrorsCorrected,
	}, "", "  ")
	if err != nil {
		return detected, err
	}
	fmt.Println(string(out))
	return detected, nil
}
