package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFrom_Wrapped(t *testing.T) {
	base := BadRequest("missing_field", errors.New("teachResponse is required"))
	err := fmt.Errorf("submit: %w", base)

	got := From(err)
	if got.Status != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", got.Status)
	}
	if got.Code != "missing_field" {
		t.Fatalf("Code = %q, want missing_field", got.Code)
	}
}

func TestFrom_Plain(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestError_Message(t *testing.T) {
	if msg := New(http.StatusConflict, "guard", nil).Error(); msg != "guard" {
		t.Fatalf("Error() = %q, want guard", msg)
	}
	if msg := New(http.StatusTeapot, "", nil).Error(); msg != "api error (418)" {
		t.Fatalf("Error() = %q", msg)
	}
}
