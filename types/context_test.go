package types

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := RequestID(ctx); ok {
		t.Fatalf("expected no request id on empty context")
	}

	ctx = WithRequestID(ctx, "req-1")
	if got, ok := RequestID(ctx); !ok || got != "req-1" {
		t.Fatalf("RequestID mismatch: %v %v", got, ok)
	}

	ctx = WithTraceID(ctx, "t1")
	if got, ok := TraceID(ctx); !ok || got != "t1" {
		t.Fatalf("TraceID mismatch: %v %v", got, ok)
	}

	ctx = WithClientKey(ctx, "sk-1***")
	if got, ok := ClientKey(ctx); !ok || got != "sk-1***" {
		t.Fatalf("ClientKey mismatch: %v %v", got, ok)
	}
}

func TestContextHelpers_EmptyValue(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "")
	if _, ok := RequestID(ctx); ok {
		t.Fatalf("empty request id must report absent")
	}
}

func TestClientKeySlot(t *testing.T) {
	t.Parallel()

	outer := WithClientKeySlot(context.Background())
	if _, ok := ClientKey(outer); ok {
		t.Fatalf("empty slot must report absent")
	}

	inner := WithClientKey(WithRequestID(outer, "req-1"), "****abcd")
	if got, ok := ClientKey(inner); !ok || got != "****abcd" {
		t.Fatalf("inner ClientKey mismatch: %v %v", got, ok)
	}
	if got, ok := ClientKey(outer); !ok || got != "****abcd" {
		t.Fatalf("outer ClientKey through slot mismatch: %v %v", got, ok)
	}

	if _, ok := ClientKey(WithClientKey(context.Background(), "x")); !ok {
		t.Fatalf("ClientKey without slot must still work")
	}
}
