// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative match weight", func(c *Config) { c.MatchWeights.Vibe = -0.1 }},
		{"scoring weights off sum", func(c *Config) { c.Scoring.BudgetFit = 0.9 }},
		{"zero low ceiling", func(c *Config) { c.Budget.LowCeiling = 0 }},
		{"medium below low", func(c *Config) { c.Budget.MediumCeiling = 1_000_000 }},
		{"reference below medium", func(c *Config) { c.Budget.HighReference = 10_000_000 }},
		{"sanity fraction out of range", func(c *Config) { c.Budget.SanityFraction = 1.5 }},
		{"non-increasing pyeong thresholds", func(c *Config) { c.PyeongCaps.MediumMaxPyeong = 10 }},
		{"decreasing caps", func(c *Config) { c.PyeongCaps.LargeCap = 1 }},
		{"zero top k", func(c *Config) { c.Limits.TopKPerCategory = 0 }},
		{"max k below top k", func(c *Config) { c.Limits.MaxK = 1 }},
		{"cache enabled without ttl", func(c *Config) { c.Cache.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestBudgetCeilingAndReference(t *testing.T) {
	b := DefaultConfig().Budget

	if got := b.Ceiling(BudgetLow); got != 5_000_000 {
		t.Errorf("Ceiling(low) = %d", got)
	}
	if got := b.Ceiling(BudgetMedium); got != 20_000_000 {
		t.Errorf("Ceiling(medium) = %d", got)
	}
	if got := b.Ceiling(BudgetHigh); got != 0 {
		t.Errorf("Ceiling(high) = %d, want 0 (unbounded)", got)
	}
	if got := b.Reference(BudgetHigh); got != 50_000_000 {
		t.Errorf("Reference(high) = %d, want the finite reference", got)
	}
	if got := b.Reference(BudgetLow); got != 5_000_000 {
		t.Errorf("Reference(low) = %d", got)
	}
}

func TestPyeongCapFor(t *testing.T) {
	caps := DefaultConfig().PyeongCaps

	tests := []struct {
		pyeong int
		want   int
	}{
		{10, 3},
		{15, 3},
		{16, 5},
		{30, 5},
		{31, 7},
		{60, 7},
	}
	for _, tt := range tests {
		if got := caps.CapFor(tt.pyeong); got != tt.want {
			t.Errorf("CapFor(%d) = %d, want %d", tt.pyeong, got, tt.want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Limits.TopKPerCategory = 9

	if cfg.Limits.TopKPerCategory == 9 {
		t.Error("mutating the clone changed the original")
	}
}
