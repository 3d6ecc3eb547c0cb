// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package snapshot persists evaluated circuit signals.
//
// A snapshot records every wire's signal at one moment, together with the
// instruction source and board epoch it came from. Snapshots are stored as
// JSON in BadgerDB and carry a SHA-256 checksum that is verified on read.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FormatVersion is the current snapshot format version (semver).
const FormatVersion = "1.0.0"

// Sentinel errors for the snapshot package.
var (
	// ErrNotFound is returned when no snapshot has the requested ID.
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorrupt is returned when a stored snapshot fails checksum verification.
	ErrCorrupt = errors.New("snapshot data is corrupt")

	// ErrVersionMismatch is returned when a stored snapshot has another format version.
	ErrVersionMismatch = errors.New("snapshot version mismatch")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// Signal is one wire's evaluation result.
type Signal struct {
	Wire  string `json:"wire"`
	Value uint16 `json:"value"`

	// Error is set when the wire could not be evaluated; Value is then 0.
	Error string `json:"error,omitempty"`
}

// Snapshot is a point-in-time record of a circuit's signals.
type Snapshot struct {
	ID        string   `json:"id"`
	CreatedAt int64    `json:"created_at"` // Unix milliseconds UTC
	Source    string   `json:"source,omitempty"`
	Epoch     uint64   `json:"epoch"`
	Signals   []Signal `json:"signals"`
	Version   string   `json:"version"`
	Checksum  string   `json:"checksum"`
}

// Summary describes a snapshot without its signals.
type Summary struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Source    string `json:"source,omitempty"`
	Epoch     uint64 `json:"epoch"`
	Wires     int    `json:"wires"`
	Failed    int    `json:"failed"`
}

// Summary returns the snapshot's summary.
func (s *Snapshot) Summary() Summary {
	sum := Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Source:    s.Source,
		Epoch:     s.Epoch,
		Wires:     len(s.Signals),
	}
	for _, sig := range s.Signals {
		if sig.Error != "" {
			sum.Failed++
		}
	}
	return sum
}

// Value returns the recorded signal of a wire. ok is false if the wire is
// absent or failed to evaluate.
func (s *Snapshot) Value(wire string) (uint16, bool) {
	for _, sig := range s.Signals {
		if sig.Wire == wire {
			return sig.Value, sig.Error == ""
		}
	}
	return 0, false
}

// Created returns CreatedAt as a time.
func (s *Snapshot) Created() time.Time {
	return time.UnixMilli(s.CreatedAt).UTC()
}

// Verify recomputes the checksum and compares it to the stored value.
func (s *Snapshot) Verify() error {
	if s == nil {
		return fmt.Errorf("%w: snapshot must not be nil", ErrInvalidInput)
	}
	if s.Version != FormatVersion {
		return fmt.Errorf("%w: got %s, want %s", ErrVersionMismatch, s.Version, FormatVersion)
	}
	want, err := computeChecksum(s)
	if err != nil {
		return err
	}
	if s.Checksum != want {
		return ErrCorrupt
	}
	return nil
}

// seal stamps the version and checksum.
func (s *Snapshot) seal() error {
	s.Version = FormatVersion
	sum, err := computeChecksum(s)
	if err != nil {
		return err
	}
	s.Checksum = sum
	return nil
}

// computeChecksum hashes every field except Checksum.
func computeChecksum(s *Snapshot) (string, error) {
	data := struct {
		ID        string   `json:"id"`
		CreatedAt int64    `json:"created_at"`
		Source    string   `json:"source"`
		Epoch     uint64   `json:"epoch"`
		Signals   []Signal `json:"signals"`
		Version   string   `json:"version"`
	}{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Source:    s.Source,
		Epoch:     s.Epoch,
		Signals:   s.Signals,
		Version:   s.Version,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal for checksum: %w", err)
	}
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:]), nil
}
