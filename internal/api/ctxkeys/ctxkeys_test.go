package ctxkeys

import (
	"context"
	"testing"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), Subject, "ops-bot")
	got, ok := ctx.Value(Subject).(string)
	if !ok {
		t.Fatalf("expected string value")
	}
	if got != "ops-bot" {
		t.Fatalf("expected ops-bot, got %q", got)
	}
	if s := String(ctx, Subject); s != "ops-bot" {
		t.Fatalf("String() = %q", s)
	}
}

func TestString_IgnoresUntypedKey(t *testing.T) {
	t.Parallel()

	//nolint:staticcheck // deliberately using a plain string key
	ctx := context.WithValue(context.Background(), "subject", "intruder")
	if s := String(ctx, Subject); s != "" {
		t.Fatalf("expected empty, got %q", s)
	}
}
