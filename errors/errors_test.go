package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Internal, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, Conflict, KindOf(New(Conflict, "email already registered")))

	wrapped := fmt.Errorf("signup: %w", Wrap(UpstreamFailure, fmt.Errorf("dial tcp"), "store unavailable"))
	assert.Equal(t, UpstreamFailure, KindOf(wrapped))
	assert.Equal(t, "store unavailable", MessageOf(wrapped))
	assert.True(t, Is(wrapped, UpstreamFailure))
	assert.False(t, Is(nil, UpstreamFailure))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(Internal, nil, "nothing"))
}

func TestMessageOfUnclassified(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(fmt.Errorf("secret detail")))
}
