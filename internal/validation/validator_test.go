// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type policyInput struct {
	Category    string  `validate:"required,categorykey"`
	TargetCount int     `validate:"min=1,max=10"`
	Ratio       float64 `validate:"gt=0"`
	Strategy    string  `validate:"omitempty,oneof=commercial_value signal_richness"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   policyInput
		wantErr bool
		wantTag string
	}{
		{
			name:  "valid",
			input: policyInput{Category: "robot-vacuum", TargetCount: 3, Ratio: 1.3},
		},
		{
			name:  "valid with strategy",
			input: policyInput{Category: "air_purifier", TargetCount: 1, Ratio: 1, Strategy: "signal_richness"},
		},
		{
			name:    "missing category",
			input:   policyInput{TargetCount: 3, Ratio: 1.3},
			wantErr: true,
			wantTag: "required",
		},
		{
			name:    "uppercase category",
			input:   policyInput{Category: "Robot Vacuum", TargetCount: 3, Ratio: 1.3},
			wantErr: true,
			wantTag: "categorykey",
		},
		{
			name:    "zero target",
			input:   policyInput{Category: "tv", TargetCount: 0, Ratio: 1.3},
			wantErr: true,
			wantTag: "min",
		},
		{
			name:    "non-positive ratio",
			input:   policyInput{Category: "tv", TargetCount: 3, Ratio: 0},
			wantErr: true,
			wantTag: "gt",
		},
		{
			name:    "unknown strategy",
			input:   policyInput{Category: "tv", TargetCount: 3, Ratio: 1.3, Strategy: "popularity"},
			wantErr: true,
			wantTag: "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 field error, got %d: %v", len(errs), err)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidationError_Accessors(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&policyInput{Category: "tv", TargetCount: 12, Ratio: 1.3})
	if err == nil {
		t.Fatal("expected error")
	}
	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 field error, got %d: %v", len(errs), err)
	}
	fe := errs[0]
	if fe.Field() != "TargetCount" {
		t.Errorf("Field() = %q, want TargetCount", fe.Field())
	}
	if fe.Tag() != "max" || fe.Param() != "10" {
		t.Errorf("Tag(), Param() = %q, %q, want max, 10", fe.Tag(), fe.Param())
	}
	if v, ok := fe.Value().(int); !ok || v != 12 {
		t.Errorf("Value() = %v, want 12", fe.Value())
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&policyInput{TargetCount: 3, Ratio: 1.3})
	if single == nil {
		t.Fatal("expected error")
	}
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "Category is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["tag"] != "required" {
		t.Errorf("Details[tag] = %v", apiErr.Details["tag"])
	}

	multi := ValidateStruct(&policyInput{})
	if multi == nil {
		t.Fatal("expected error")
	}
	apiErr = multi.ToAPIError()
	if !strings.Contains(apiErr.Message, "; ") {
		t.Errorf("expected joined message, got %q", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Errorf("expected 3 field details, got %v", apiErr.Details["fields"])
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	t.Parallel()

	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
	if ve.ToAPIError().Message != "Validation failed" {
		t.Errorf("Message = %q", ve.ToAPIError().Message)
	}
}
