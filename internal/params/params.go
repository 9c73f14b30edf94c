// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package params holds the named generator parameters (mode, radius, slope,
// intercept). Values are stored loosely typed, the way they arrive from a
// YAML file or an MQTT payload, and converted when a snapshot is taken.
package params

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Mode selects the synthetic range model.
type Mode string

const (
	ModeRadius Mode = "radius"
	ModeLine   Mode = "line"
)

// Parameter names.
const (
	NameMode      = "mode"
	NameRadius    = "radius"
	NameSlope     = "slope"
	NameIntercept = "intercept"
)

// Params is one consistent view of the generator parameters.
type Params struct {
	Mode      Mode    `json:"mode"`
	Radius    float64 `json:"radius"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Defaults returns the built-in parameter values.
func Defaults() Params {
	return Params{
		Mode:      ModeRadius,
		Radius:    2.0,
		Slope:     1.0,
		Intercept: 1.0,
	}
}

// Provider is anything the generator can read parameters from once per tick.
type Provider interface {
	Snapshot() Params
}

// Store is a concurrency-safe named parameter store.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore returns an empty store; every snapshot yields Defaults until
// values are set.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Set stores a raw value under name. The value is not checked here;
// Snapshot falls back to the default for anything it cannot convert.
func (s *Store) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Merge stores every entry of m.
func (s *Store) Merge(m map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range m {
		s.values[k] = v
	}
}

// LoadFile merges a flat YAML mapping of parameter names into the store.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read params file: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse params file: %w", err)
	}
	s.Merge(m)
	return nil
}

// Snapshot converts the stored values into Params. Missing or malformed
// values take their default.
func (s *Store) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Defaults()
	if v, ok := s.values[NameMode]; ok {
		switch m := Mode(cast.ToString(v)); m {
		case ModeRadius, ModeLine:
			p.Mode = m
		}
	}
	p.Radius = s.float(NameRadius, p.Radius)
	p.Slope = s.float(NameSlope, p.Slope)
	p.Intercept = s.float(NameIntercept, p.Intercept)
	return p
}

// float must be called with s.mu held.
func (s *Store) float(name string, def float64) float64 {
	v, ok := s.values[name]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return def
	}
	return f
}

// Static is a Provider that always returns the same Params.
type Static Params

func (p Static) Snapshot() Params { return Params(p) }
