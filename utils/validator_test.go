package utils

import "testing"

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Plan  string `json:"plan" validate:"required"`
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Plan: "Cardio"})
	if err == nil || err.Error() != "Email is required" {
		t.Fatalf("expected 'Email is required', got %v", err)
	}
}

func TestValidateStructEmail(t *testing.T) {
	if err := ValidateStruct(&sampleRequest{Email: "a@b.com", Plan: "Cardio"}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
	if err := ValidateStruct(&sampleRequest{Email: "nope", Plan: "Cardio"}); err == nil {
		t.Fatal("expected malformed email to fail")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A.User@Example.COM "); got != "a.user@example.com" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
