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
)

var embedCmd = &cobra.Command{
	Use:   "embed INPUT OUTPUT",
	Short: "Embed a provenance payload into an image",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		// Bind at run time, not init: embed and extract share flag names
		// (ecc-symbols), and an init-time bind would leave viper pointed
		// at whichever command registered last.
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.Fatalf("embed: %v", err)
		}
		if err := runEmbed(args[0], args[1]); err != nil {
			log.Fatalf("embed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().String("copyright", "", "copyright notice to embed")
	embedCmd.Flags().String("author", "", "author to embed")
	embedCmd.Flags().String("ai-tool", "", "generating AI tool name, if any")
	embedCmd.Flags().Bool("ai-generated", false, "mark the image as AI-generated")
	embedCmd.Flags().String("fields", "", "extra payload fields as a JSON object")
	embedCmd.Flags().Float32("strength", 0, "base DCT modification magnitude (0 = default 15.0)")
	embedCmd.Flags().Float64("target-psnr", 0, "adaptive-strength PSNR target in dB (0 = default 42.0)")
	embedCmd.Flags().Bool("no-adaptive", false, "disable the adaptive strength ladder")
	embedCmd.Flags().Bool("no-saliency", false, "disable saliency-modulated strength")
	embedCmd.Flags().Int("ecc-symbols", 0, "Reed-Solomon parity symbols per block (0 = default 32)")
	embedCmd.Flags().Bool("include-timestamp", false, "stamp the payload with the embed time")
	embedCmd.Flags().Bool("include-id", false, "mint a truthmark_id UUID into the payload")
	embedCmd.Flags().Bool("include-fingerprint", false, "add a hash of the cover image to the payload")
	embedCmd.Flags().Bool("ai-act-compliance", false, "add an EU AI Act compliance block to the payload")
}

func runEmbed(inputPath, outputPath string) error {
	key, err := loadKey()
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if s := viper.GetString("fields"); s != "" {
		if err := json.Unmarshal([]byte(s), &fields); err != nil {
			return fmt.Errorf("--fields is not a JSON object: %w", err)
		}
	}
	if v := viper.GetString("copyright"); v != "" {
		fields["copyright"] = v
	}
	if v := viper.GetString("author"); v != "" {
		fields["author"] = v
	}
	if v := viper.GetString("ai-tool"); v != "" {
		fields["ai_tool"] = v
	}
	if viper.GetBool("ai-generated") {
		fields["ai_generated"] = true
	}
	if len(fields) == 0 && !viper.GetBool("include-timestamp") && !viper.GetBool("include-id") && !viper.GetBool("include-fingerprint") {
		return fmt.Errorf("nothing to embed: pass --copyright, --fields, or an --include-* flag")
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

	cfg := truthmark.EmbedConfig{
		Strength:                float32(viper.GetFloat64("strength")),
		TargetPSNR:              viper.GetFloat64("target-psnr"),
		DisableAdaptiveStrength: viper.GetBool("no-adaptive"),
		DisableSaliency:         viper.GetBool("no-saliency"),
		EccSymbols:              viper.GetInt("ecc-symbols"),
		IncludeTimestamp:        viper.GetBool("include-timestamp"),
		IncludeTruthMarkID:      viper.GetBool("include-id"),
		IncludeFingerprint:      viper.GetBool("include-fingerprint"),
		AIActCompliance:         viper.GetBool("ai-act-compliance"),
	}

	watermarked, info, err := truthmark.Embed(img, fields, key, cfg)
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := imageio.Encode(out, watermarked, format); err != nil {
		return err
	}

	log.Printf("embedded %d bits across %d sites at strength %.2f, PSNR %.2f dB -> %s",
		info.BitsEmbedded, info.NSites, info.StrengthUsed, info.PSNRdB, outputPath)
	return nil
}
