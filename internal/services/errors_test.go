package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExtractionFailed, "bootstrap", "7z", "exit status 2", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExtractionFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"bootstrap", "7z", "exit status 2"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrVerificationFailed, "", "", "", nil)
	if !errors.Is(err, services.ErrVerificationFailed) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsCancelled(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.ErrCancelled, true},
		{fmt.Errorf("fetch: %w", services.ErrCancelled), true},
		{context.Canceled, true},
		{services.Wrap(services.ErrTransport, "fetch", "get", "", context.Canceled), true},
		{services.ErrTransport, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.IsCancelled(tc.err); got != tc.want {
			t.Fatalf("IsCancelled(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestHintCoversBootstrapFailures(t *testing.T) {
	for _, marker := range []error{
		services.ErrToolNotFound,
		services.ErrTransport,
		services.ErrExtractionFailed,
		services.ErrStructureUnrecognized,
		services.ErrVerificationFailed,
		services.ErrStartFailure,
	} {
		if services.Hint(services.Wrap(marker, "x", "", "", nil)) == "" {
			t.Fatalf("expected hint for %v", marker)
		}
	}
	if services.Hint(nil) != "" {
		t.Fatal("expected no hint for nil")
	}
}
