package services_test

import (
	"context"
	"testing"

	"cloudronwatch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithComponent(ctx, "pipeline")
	ctx = services.WithNotificationID(ctx, "42")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if component, ok := services.ComponentFromContext(ctx); !ok || component != "pipeline" {
		t.Fatalf("unexpected component: %v %v", component, ok)
	}
	if nid, ok := services.NotificationIDFromContext(ctx); !ok || nid != "42" {
		t.Fatalf("unexpected notification id: %v %v", nid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithComponent(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.ComponentFromContext(ctx); ok {
		t.Fatal("expected no component value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
