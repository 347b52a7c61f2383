// Copyright 2025 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0> or the MIT license
// <LICENSE-MIT or https://opensource.org/licenses/MIT>, at your
// option. This file may not be copied, modified, or distributed
// except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// truthmarkctl embeds and verifies encrypted provenance watermarks in
// PNG and JPEG files from the command line. It is a thin wrapper around
// the truthmark library; everything it does is available programmatically.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "truthmarkctl",
	Short: "Embed and verify encrypted provenance watermarks in images",
	Long: `truthmarkctl writes an encrypted, error-corrected provenance payload
into the DCT coefficients of an image's luma channel, and recovers it
later from a possibly re-compressed copy. The payload is sealed under a
32-byte symmetric key; without the key the watermark can be neither
read nor forged.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.truthmarkctl.yaml)")
	rootCmd.PersistentFlags().String("key", "", "64 hex digits: the 32-byte symmetric watermark key")
	rootCmd.PersistentFlags().String("key-file", "", "file holding the 32-byte key (raw or hex)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and TRUTHMARK_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".truthmarkctl")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("truthmark")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadKey resolves the watermark key from the "key" setting (--key, else
// the TRUTHMARK_KEY environment variable, else the config file), and
// only when that is empty from --key-file.
func loadKey() ([]byte, error) {
	if s := viper.GetString("key"); s != "" {
		key, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("--key is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("--key decodes to %d bytes, want 32", len(key))
		}
		return key, nil
	}

	if path := viper.GetString("key-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		trimmed := strings.TrimSpace(string(raw))
		if len(trimmed) == 64 {
			if key, err := hex.DecodeString(trimmed); err == nil {
				return key, nil
			}
		}
		if len(raw) == 32 {
			return raw, nil
		}
		return nil, fmt.Errorf("key file %s holds neither 32 raw bytes nor 64 hex digits", path)
	}

	return nil, fmt.Errorf("no key: pass --key, --key-file, or set TRUTHMARK_KEY")
}
