package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tt := range tests {
		if got := New(tt.kind, "x").HTTPStatus(); got != tt.want {
			t.Fatalf("kind %d: expected %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("forecast: %w", Unavailable("store down", cause).WithOp("forecast"))

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if !Is(err, KindUnavailable) {
		t.Fatalf("expected KindUnavailable, got %d", GetKind(err))
	}
	if GetKind(cause) != KindUnknown {
		t.Fatalf("expected KindUnknown for plain errors")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	if got := Validation("bad date").WithOp("historical").Error(); got != "historical: bad date" {
		t.Fatalf("expected op prefix, got %q", got)
	}
}
