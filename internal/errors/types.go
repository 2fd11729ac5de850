// Package errors provides the structured error taxonomy for the
// tracking core. Per-frame failures never propagate as errors past the
// frame boundary; these types cover the asynchronous setup paths
// (session, permission, stream and anchor requests) and classification
// for the session lifecycle's downgrade decisions.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeCapability means the host lacks a required feature. Not
	// retryable for the tier that needed it; triggers a tier downgrade.
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeAnchorCreation means native anchor creation failed. The
	// placement degrades to a fixed-matrix record; log only.
	ErrorTypeAnchorCreation ErrorType = "anchor_creation"
	// ErrorTypeAnchorTracking means a native anchor could not be
	// resolved this frame. The object keeps its last good pose.
	ErrorTypeAnchorTracking ErrorType = "anchor_tracking"
	// ErrorTypePermission means a sensor or camera permission was
	// denied. Disables that pose source for the rest of the session.
	ErrorTypePermission ErrorType = "permission"
	// ErrorTypeSessionRequest means the host session request failed,
	// was rejected, or no camera exists. Triggers the next fallback
	// tier.
	ErrorTypeSessionRequest ErrorType = "session_request"
	// ErrorTypeConfig is a configuration problem.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal is an unexpected internal failure.
	ErrorTypeInternal ErrorType = "internal"
)

// TrackingError is a structured error type with context.
type TrackingError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *TrackingError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *TrackingError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *TrackingError) Is(target error) bool {
	var t *TrackingError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithComponent adds component context.
func (e *TrackingError) WithComponent(component string) *TrackingError {
	e.Component = component
	return e
}

// Common error codes.
const (
	ErrCodeNoXRSystem          = "ERR_NO_XR_SYSTEM"
	ErrCodeNoHitTest           = "ERR_NO_HIT_TEST"
	ErrCodeNoReferenceSpace    = "ERR_NO_REFERENCE_SPACE"
	ErrCodeAnchorsUnsupported  = "ERR_ANCHORS_UNSUPPORTED"
	ErrCodeAnchorCreateFailed  = "ERR_ANCHOR_CREATE_FAILED"
	ErrCodeAnchorLost          = "ERR_ANCHOR_LOST"
	ErrCodeSensorDenied        = "ERR_SENSOR_DENIED"
	ErrCodeCameraDenied        = "ERR_CAMERA_DENIED"
	ErrCodeNoCamera            = "ERR_NO_CAMERA"
	ErrCodeSessionRejected     = "ERR_SESSION_REJECTED"
	ErrCodeSessionEnded        = "ERR_SESSION_ENDED"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeBridgeClosed        = "ERR_BRIDGE_CLOSED"
	ErrCodeModelNotFound       = "ERR_MODEL_NOT_FOUND"
	ErrCodeUnknownAnchorRecord = "ERR_UNKNOWN_ANCHOR_RECORD"
)

// Error creation functions

// NewCapabilityError creates a missing-host-feature error.
func NewCapabilityError(code, message string) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeCapability,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewAnchorCreationError creates an anchor-creation failure. Recoverable:
// the placement degrades to a fixed-matrix record.
func NewAnchorCreationError(cause error) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeAnchorCreation,
		Code:        ErrCodeAnchorCreateFailed,
		Message:     "native anchor creation failed",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewAnchorTrackingError creates a per-frame anchor-tracking failure.
func NewAnchorTrackingError(objectID int64) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeAnchorTracking,
		Code:        ErrCodeAnchorLost,
		Message:     fmt.Sprintf("anchor untrackable for object %d", objectID),
		Recoverable: true,
	}
}

// NewPermissionError creates a permission-denied error.
func NewPermissionError(code, message string, cause error) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypePermission,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewSessionRequestError creates a session-request failure.
func NewSessionRequestError(message string, cause error) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeSessionRequest,
		Code:        ErrCodeSessionRejected,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeConfig,
		Code:        ErrCodeConfigInvalid,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *TrackingError {
	return &TrackingError{
		Type:        ErrorTypeInternal,
		Code:        ErrCodeInternal,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Classification helpers

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TrackingError
	if errors.As(err, &te) {
		return te.Recoverable
	}
	return false
}

// IsPermissionDenied checks if an error is a permission denial.
func IsPermissionDenied(err error) bool {
	var te *TrackingError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermission
	}
	return false
}

// IsCapability checks if an error reports a missing host feature.
func IsCapability(err error) bool {
	var te *TrackingError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeCapability
	}
	return false
}

// IsSessionRequest checks if an error is a session-request failure.
func IsSessionRequest(err error) bool {
	var te *TrackingError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeSessionRequest
	}
	return false
}

// TriggersDowngrade reports whether the error should move the session to
// the next fallback tier, per the downgrade chain.
func TriggersDowngrade(err error) bool {
	var te *TrackingError
	if errors.As(err, &te) {
		switch te.Type {
		case ErrorTypeCapability, ErrorTypeSessionRequest:
			return true
		}
	}
	return false
}
