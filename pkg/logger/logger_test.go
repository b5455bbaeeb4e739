package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// The field keys are shared across packages; a duplicate would silently
// merge unrelated fields in the log output.
func TestFieldKeysAreUnique(t *testing.T) {
	keys := []string{
		RootCommandKey, SubCommandKey,
		CommitKey, VersionKey, BuildTimeKey, GoVersionKey,
		TimeStampKey, MessageKey,
		ConnectionKey, KeyKey, FilterKey, PrefixKey,
	}
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		require.NotEmpty(t, k)
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate field key %q", k)
		}
		seen[k] = struct{}{}
	}
}

func TestContextRoundTrip(t *testing.T) {
	log := GetNoopLogger()
	ctx := WithLogger(context.Background(), log)
	require.Same(t, log, FromContext(ctx))

	// attaching the same logger again returns the original context
	require.Equal(t, ctx, WithLogger(ctx, log))
}

func TestFromContextFallsBackToNoop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	base := GetNoopLogger()
	derived := WithValues(base, ConnectionKey, "test")
	require.NotSame(t, base, derived)
}
