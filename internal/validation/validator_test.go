// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package validation

import (
	"errors"
	"strings"
	"testing"
)

type innerConfig struct {
	Threshold float64 `koanf:"fire_threshold" validate:"gt=0,lte=100"`
}

type sampleConfig struct {
	Path    string      `koanf:"path" validate:"required,urlpath"`
	Format  string      `koanf:"format" validate:"omitempty,oneof=json console"`
	Name    string      `json:"name" validate:"min=2"`
	Items   []string    `koanf:"items" validate:"min=1"`
	Tracker innerConfig `koanf:"tracker"`
}

func validSample() sampleConfig {
	return sampleConfig{
		Path:    "/webhook",
		Format:  "json",
		Name:    "jb",
		Items:   []string{"Movie"},
		Tracker: innerConfig{Threshold: 85},
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	s := validSample()
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("ValidateStruct() unexpected error: %v", err)
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sampleConfig)
		field   string
		tag     string
		message string
	}{
		{
			name:    "missing path",
			mutate:  func(s *sampleConfig) { s.Path = "" },
			field:   "path",
			tag:     "required",
			message: "path is required",
		},
		{
			name:    "relative path",
			mutate:  func(s *sampleConfig) { s.Path = "webhook" },
			field:   "path",
			tag:     "urlpath",
			message: "path must be an absolute path such as /webhook",
		},
		{
			name:    "bad format",
			mutate:  func(s *sampleConfig) { s.Format = "xml" },
			field:   "format",
			tag:     "oneof",
			message: "format must be one of: json console",
		},
		{
			name:    "short name uses json tag",
			mutate:  func(s *sampleConfig) { s.Name = "x" },
			field:   "name",
			tag:     "min",
			message: "name must be at least 2 characters",
		},
		{
			name:    "empty slice",
			mutate:  func(s *sampleConfig) { s.Items = nil },
			field:   "items",
			tag:     "min",
			message: "items must be at least 1 items",
		},
		{
			name:    "nested path",
			mutate:  func(s *sampleConfig) { s.Tracker.Threshold = 120 },
			field:   "tracker.fire_threshold",
			tag:     "lte",
			message: "tracker.fire_threshold must be less than or equal to 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			err := ValidateStruct(&s)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var sve *StructValidationError
			if !errors.As(err, &sve) {
				t.Fatalf("error type = %T, want *StructValidationError", err)
			}
			if len(sve.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(sve.Errors()), err)
			}
			fe := sve.Errors()[0]
			if fe.Field() != tt.field {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.field)
			}
			if fe.Tag() != tt.tag {
				t.Errorf("Tag() = %q, want %q", fe.Tag(), tt.tag)
			}
			if fe.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", fe.Error(), tt.message)
			}
		})
	}
}

func TestValidateStruct_MultipleErrorsJoined(t *testing.T) {
	s := validSample()
	s.Path = ""
	s.Format = "xml"

	err := ValidateStruct(&s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "path is required") || !strings.Contains(err.Error(), "; format") {
		t.Errorf("Error() = %q, want both messages joined", err.Error())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}
