// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Vibe          string `validate:"required,oneof=modern cozy pop luxury"`
	HouseholdSize int    `validate:"min=1,max=5"`
	Pyeong        int    `validate:"min=1"`
	K             int    `validate:"omitempty,min=1,max=10"`
}

func TestStructPasses(t *testing.T) {
	req := sampleRequest{Vibe: "modern", HouseholdSize: 2, Pyeong: 24}
	if err := Struct(&req); err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}

func TestStructCollectsAllFailures(t *testing.T) {
	req := sampleRequest{Vibe: "brutalist", HouseholdSize: 9, Pyeong: 0}
	err := Struct(&req)
	if err == nil {
		t.Fatal("Struct() = nil, want error")
	}
	if len(err.Fields()) != 3 {
		t.Fatalf("Fields() returned %d failures, want 3: %v", len(err.Fields()), err)
	}

	tags := map[string]string{}
	for _, f := range err.Fields() {
		tags[f.Field] = f.Tag
	}
	if tags["vibe"] != "oneof" {
		t.Errorf("vibe failed %q, want oneof", tags["vibe"])
	}
	if tags["householdsize"] != "max" {
		t.Errorf("householdsize failed %q, want max", tags["householdsize"])
	}
	if tags["pyeong"] != "min" {
		t.Errorf("pyeong failed %q, want min", tags["pyeong"])
	}
}

func TestTranslationIncludesParam(t *testing.T) {
	req := sampleRequest{Vibe: "modern", HouseholdSize: 9, Pyeong: 10}
	err := Struct(&req)
	if err == nil {
		t.Fatal("Struct() = nil, want error")
	}
	if !strings.Contains(err.Error(), "at most 5") {
		t.Errorf("Error() = %q, want mention of the max param", err.Error())
	}
}
