package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewFromRegistry(t *testing.T) {
	err := New("R001")

	if err.Code != "R001" {
		t.Errorf("expected code R001, got %s", err.Code)
	}
	if err.Category != CategoryRuntime {
		t.Errorf("expected runtime category, got %s", err.Category)
	}
	if err.Message == "" || err.DocURL == "" {
		t.Error("expected registry template fields populated")
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("Z999")
	if err.Code != "Z999" || err.Message != "Unknown error" {
		t.Errorf("unexpected error for unknown code: %+v", err)
	}
}

func TestErrorString(t *testing.T) {
	err := New("P002")
	want := "P002: Malformed mutation frame"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := New("P001").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestFromErrorPassesThrough(t *testing.T) {
	orig := New("C001")
	if got := FromError(orig, "C002"); got != orig {
		t.Error("expected existing Error to pass through unchanged")
	}
	if got := FromError(nil, "C001"); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	Register("X001", ErrorTemplate{
		Category: CategoryRuntime,
		Message:  "Custom failure",
	})

	tmpl, ok := Lookup("X001")
	if !ok || tmpl.Message != "Custom failure" {
		t.Errorf("expected registered template, got %+v", tmpl)
	}
	if got := New("X001"); got.Message != "Custom failure" {
		t.Errorf("expected New to use registered template, got %+v", got)
	}
}
