package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeContext(t *testing.T) {
	sentinel := errors.New("stop")

	tests := []struct {
		name    string
		fn      func(context.Context) error
		wantErr string
		is      error
	}{
		{name: "ok", fn: func(context.Context) error { return nil }},
		{name: "error", fn: func(context.Context) error { return sentinel }, wantErr: "worker: stop", is: sentinel},
		{name: "panic", fn: func(context.Context) error { panic("kaboom") }, wantErr: "kaboom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeContext("worker", tt.fn)(context.Background())
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestSafe(t *testing.T) {
	err := Safe("job", func() error { panic("nope") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job")
}
