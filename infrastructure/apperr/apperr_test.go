package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := Conflict("serial number %q already exists", "SN-1")
	wrapped := fmt.Errorf("create asset: %w", err)

	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind after wrapping, got %v", KindOf(wrapped))
	}
	if HTTPStatus(wrapped) != http.StatusConflict {
		t.Fatalf("expected 409, got %d", HTTPStatus(wrapped))
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("customer %d not found", 7), http.StatusNotFound},
		{Conflict("no free ports"), http.StatusConflict},
		{Forbidden("not your task"), http.StatusForbidden},
		{InvalidState("task already Completed"), http.StatusBadRequest},
		{Internal("query failed", errors.New("disk I/O error")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("unexpected failure", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Internal to unwrap its cause")
	}
}
