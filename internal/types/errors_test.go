package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForensiqError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ForensiqError
		want string
	}{
		{
			name: "without cause",
			err:  NewError(AUDIT_WRITE_FAILED, "append failed"),
			want: "[AUDIT_WRITE_FAILED] append failed",
		},
		{
			name: "with cause",
			err:  WrapError(CONFIG_LOAD_FAILED, "cannot read config", errors.New("permission denied")),
			want: "[CONFIG_LOAD_FAILED] cannot read config: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestForensiqError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("run: %w", WrapError(AGENT_FAILED, "agent crashed", errors.New("boom")))

	assert.True(t, errors.Is(err, NewError(AGENT_FAILED, "any message")))
	assert.False(t, errors.Is(err, NewError(AGENT_TIMEOUT, "any message")))
	assert.Equal(t, AGENT_FAILED, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestForensiqError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(AUDIT_WRITE_FAILED, "append failed", cause)

	require.ErrorIs(t, err, cause)
	assert.False(t, err.Retryable)
	assert.True(t, NewRetryableError(ORACLE_TIMEOUT, "slow").Retryable)
}
