// Package errors provides standardized error handling for the mission
// controller. It classifies failures into the four classes the orchestration
// loops care about (transport, protocol, handshake, upstream) and provides
// helpers for consistent error wrapping across workers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorTransport represents link send/receive failures. They raise the
	// link-dropped flag for the affected link and never crash a worker.
	ErrorTransport ErrorClass = iota
	// ErrorProtocol represents malformed or out-of-range packets. The packet
	// is logged and dropped without mutating state.
	ErrorProtocol
	// ErrorHandshake represents out-of-order ACK/FIN traffic from the motor
	// controller. Treated as benign; state is coerced to the nearest valid state.
	ErrorHandshake
	// ErrorUpstream represents plan/stitch/recognition call failures. Reported
	// to the operator as an error-category message; the mission continues.
	ErrorUpstream
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransport:
		return "transport"
	case ErrorProtocol:
		return "protocol"
	case ErrorHandshake:
		return "handshake"
	case ErrorUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions.
var (
	// Link errors
	ErrLinkClosed   = errors.New("link closed")
	ErrLinkDropped  = errors.New("link dropped")
	ErrNoConnection = errors.New("no connection available")
	ErrSendFailed   = errors.New("send failed")

	// Packet errors
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrInvalidDirection  = errors.New("invalid direction designator")
	ErrUnrecognizedToken = errors.New("unrecognized token")
	ErrMalformedPacket   = errors.New("malformed packet")
	ErrUndecodableCmd    = errors.New("command cannot be unambiguously decoded")

	// Handshake errors
	ErrDuplicateAck = errors.New("duplicate ACK")
	ErrFinNotHeld   = errors.New("FIN with movement lock not held")

	// Upstream errors
	ErrPlanRequestFailed  = errors.New("plan request failed")
	ErrStitchFailed       = errors.New("stitch request failed")
	ErrRecognitionFailed  = errors.New("recognition failed")
	ErrEmptyPlan          = errors.New("plan response contained no commands")
	ErrUpstreamStatus     = errors.New("non-success upstream status")
	ErrUpstreamUnreadable = errors.New("unreadable upstream response")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransport checks whether an error is a link transport failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransport
	}

	return errors.Is(err, ErrLinkClosed) ||
		errors.Is(err, ErrLinkDropped) ||
		errors.Is(err, ErrNoConnection) ||
		errors.Is(err, ErrSendFailed)
}

// IsProtocol checks whether an error is a malformed-packet failure.
func IsProtocol(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorProtocol
	}

	return errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrUnrecognizedToken) ||
		errors.Is(err, ErrMalformedPacket) ||
		errors.Is(err, ErrUndecodableCmd)
}

// IsHandshake checks whether an error is a benign ACK/FIN ordering anomaly.
func IsHandshake(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorHandshake
	}

	return errors.Is(err, ErrDuplicateAck) || errors.Is(err, ErrFinNotHeld)
}

// IsUpstream checks whether an error came from a remote collaborator call.
func IsUpstream(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUpstream
	}

	return errors.Is(err, ErrPlanRequestFailed) ||
		errors.Is(err, ErrStitchFailed) ||
		errors.Is(err, ErrRecognitionFailed) ||
		errors.Is(err, ErrUpstreamStatus) ||
		errors.Is(err, ErrUpstreamUnreadable)
}

// Classify returns the error class for an error. Unclassified errors default
// to transport so the supervising loops treat them as recoverable.
func Classify(err error) ErrorClass {
	switch {
	case IsProtocol(err):
		return ErrorProtocol
	case IsHandshake(err):
		return ErrorHandshake
	case IsUpstream(err):
		return ErrorUpstream
	default:
		return ErrorTransport
	}
}

// newClassified creates a new classified error.
// Internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransport wraps an error as a transport failure with context.
func WrapTransport(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransport, wrappedErr, component, method, wrappedErr.Error())
}

// WrapProtocol wraps an error as a protocol failure with context.
func WrapProtocol(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorProtocol, wrappedErr, component, method, wrappedErr.Error())
}

// WrapHandshake wraps an error as a handshake anomaly with context.
func WrapHandshake(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorHandshake, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUpstream wraps an error as an upstream call failure with context.
func WrapUpstream(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUpstream, wrappedErr, component, method, wrappedErr.Error())
}
