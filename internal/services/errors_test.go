package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cloudronwatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrNetwork, "cloudron", "list notifications", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"cloudron", "list notifications", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "run failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFatalClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "missing token", nil), true},
		{"locked", services.Wrap(services.ErrLocked, "runlock", "acquire", "held", nil), true},
		{"auth", services.Wrap(services.ErrAuthentication, "cloudron", "list apps", "401", nil), true},
		{"delivery", services.Wrap(services.ErrDelivery, "delivery", "command", "exit 1", nil), false},
		{"acknowledge", fmt.Errorf("outer: %w", services.Wrap(services.ErrAcknowledge, "cloudron", "acknowledge", "500", nil)), false},
		{"plain", errors.New("plain"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Fatal(tc.err); got != tc.want {
				t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestKindLabels(t *testing.T) {
	if kind := services.Kind(services.Wrap(services.ErrTimeout, "delivery", "command", "", nil)); kind != "timeout" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if kind := services.Kind(errors.New("x")); kind != "unknown" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if kind := services.Kind(nil); kind != "" {
		t.Fatalf("expected empty kind for nil, got %q", kind)
	}
}
