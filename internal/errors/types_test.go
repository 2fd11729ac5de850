package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("host said no")
	err := NewSessionRequestError("session request failed", cause).
		WithComponent("session")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_SESSION_REJECTED]")
	assert.Contains(t, msg, "component:session")
	assert.Contains(t, msg, "session request failed")
	assert.Contains(t, msg, "host said no")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewAnchorCreationError(cause)

	assert.True(t, errors.Is(err, cause))
}

func TestIsMatchesTypeAndCode(t *testing.T) {
	a := NewCapabilityError(ErrCodeNoHitTest, "no hit test")
	b := NewCapabilityError(ErrCodeNoHitTest, "different message")
	c := NewCapabilityError(ErrCodeNoReferenceSpace, "no space")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recoverable bool
		permission  bool
		capability  bool
		downgrade   bool
	}{
		{
			name:        "anchor creation failure",
			err:         NewAnchorCreationError(fmt.Errorf("busy")),
			recoverable: true,
		},
		{
			name:       "permission denial",
			err:        NewPermissionError(ErrCodeSensorDenied, "denied", nil),
			permission: true,
		},
		{
			name:       "missing capability",
			err:        NewCapabilityError(ErrCodeNoHitTest, "no hit test"),
			capability: true,
			downgrade:  true,
		},
		{
			name:        "session rejection",
			err:         NewSessionRequestError("rejected", nil),
			recoverable: true,
			downgrade:   true,
		},
		{
			name: "internal",
			err:  NewInternalError("boom", nil),
		},
		{
			name: "plain error",
			err:  fmt.Errorf("plain"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.recoverable, IsRecoverable(tt.err))
			assert.Equal(t, tt.permission, IsPermissionDenied(tt.err))
			assert.Equal(t, tt.capability, IsCapability(tt.err))
			assert.Equal(t, tt.downgrade, TriggersDowngrade(tt.err))
		})
	}
}

func TestWrappedClassification(t *testing.T) {
	inner := NewSessionRequestError("rejected", nil)
	wrapped := fmt.Errorf("entering ar: %w", inner)

	assert.True(t, IsSessionRequest(wrapped))
	assert.True(t, TriggersDowngrade(wrapped))
}
