package main

import (
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestValidateProfilePatch(t *testing.T) {
	tests := []struct {
		name    string
		body    patchProfileRequest
		wantErr bool
	}{
		{"empty body", patchProfileRequest{}, true},
		{"full onboarding", patchProfileRequest{
			Sex: ptr("female"), HeightCM: ptr(165.0), WeightKG: ptr(68.0),
			AgeYears: ptr(28), ActivityLevel: ptr("light"), TargetWeightKG: ptr(62.0),
		}, false},
		{"very_active spelling", patchProfileRequest{ActivityLevel: ptr("very_active")}, false},
		{"unknown sex", patchProfileRequest{Sex: ptr("other")}, true},
		{"unknown activity", patchProfileRequest{ActivityLevel: ptr("couch")}, true},
		{"zero height", patchProfileRequest{HeightCM: ptr(0.0)}, true},
		{"negative weight", patchProfileRequest{WeightKG: ptr(-70.0)}, true},
		{"absurd target", patchProfileRequest{TargetWeightKG: ptr(900.0)}, true},
		{"zero age", patchProfileRequest{AgeYears: ptr(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateProfilePatch(tt.body)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateProfilePatch() = %q, wantErr %v", msg, tt.wantErr)
			}
		})
	}
}
