package p2pchat_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coregx/p2pchat"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *p2pchat.Error
		want string
	}{
		{
			name: "without cause",
			err:  p2pchat.NewError(p2pchat.ErrCodeCommand, "unknown command /foo"),
			want: "COMMAND_ERROR: unknown command /foo",
		},
		{
			name: "with cause",
			err:  p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to insert message", errors.New("disk full")),
			want: "STORE_WRITE_FAILURE: failed to insert message: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "write", cause)

	assert.ErrorIs(t, err, cause)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("store: %w", p2pchat.NewError(p2pchat.ErrCodeStoreRead, "read"))

	assert.True(t, p2pchat.HasCode(err, p2pchat.ErrCodeStoreRead))
	assert.False(t, p2pchat.HasCode(err, p2pchat.ErrCodeStoreWrite))
	assert.False(t, p2pchat.HasCode(errors.New("plain"), p2pchat.ErrCodeStoreRead))
	assert.False(t, p2pchat.HasCode(nil, p2pchat.ErrCodeStoreRead))
}

func TestIsNoPeers(t *testing.T) {
	assert.True(t, p2pchat.IsNoPeers(p2pchat.ErrNoPeers))
	assert.True(t, p2pchat.IsNoPeers(fmt.Errorf("publish: %w", p2pchat.ErrNoPeers)))
	assert.True(t, p2pchat.IsNoPeers(p2pchat.NewError(p2pchat.ErrCodeNoPeers, "nobody home")))
	assert.False(t, p2pchat.IsNoPeers(errors.New("timeout")))
	assert.False(t, p2pchat.IsNoPeers(nil))
}
