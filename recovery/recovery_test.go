package recovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBudgetsPerKind(t *testing.T) {
	if testing.Short() {
		t.Skip("backoff sleeps")
	}
	tests := []struct {
		kind     Kind
		attempts int
	}{
		{KindDatabase, 3},
		{KindAPI, 2},
		{KindNotify, 2},
	}
	for _, tt := range tests {
		calls := 0
		err := ExecuteWithRetry(tt.kind, "always_fails", func() error {
			calls++
			return errors.New("down")
		})
		assert.Error(t, err)
		assert.Equal(t, tt.attempts, calls, "budget for %s", tt.kind)
	}
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(KindDatabase, "healthy", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("backoff sleep")
	}
	calls := 0
	err := ExecuteWithRetry(KindNotify, "flaky", func() error {
		calls++
		if calls == 1 {
			return errors.New("first call fails")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
