// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultPath returns ~/.aleutian/circuit.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".aleutian", "circuit.yaml"), nil
}

// Load reads and validates the config at path.
//
// Description:
//
//	An empty path selects DefaultPath. If that file does not exist it is
//	created from DefaultConfig and a notice is written to notify; an
//	explicit path that does not exist is an error. Fields missing from the
//	file keep their DefaultConfig values.
//
// Inputs:
//
//	path - Config file path, or "" for the default location.
//	notify - Receives the first-run notice. May be nil.
//
// Outputs:
//
//	CircuitConfig - The validated config.
//	error - Non-nil on read, parse or validation failure.
func Load(path string, notify io.Writer) (CircuitConfig, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return CircuitConfig{}, err
		}
		if _, err := os.Stat(def); os.IsNotExist(err) {
			if notify != nil {
				fmt.Fprintf(notify, " First run detected, creating the config at %s\n", def)
			}
			if err := createDefault(def); err != nil {
				return CircuitConfig{}, err
			}
		}
		path = def
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return CircuitConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (CircuitConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CircuitConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return CircuitConfig{}, err
	}
	cfg.Storage.Path = ExpandHome(cfg.Storage.Path)
	cfg.Logging.Dir = ExpandHome(cfg.Logging.Dir)
	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg CircuitConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
