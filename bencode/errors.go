package bencode

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is wrapped by every usage error: calling a method the current state does not allow, or passing
// an invalid argument. Usage errors never change the position or the state.
var ErrInvalidOperation = errors.New("bencode: invalid operation")

// InvalidBencodeError reports malformed input. Position is the absolute offset of the offending byte, or the length
// of the buffer when more data was expected.
type InvalidBencodeError struct {
	Position int
	msg      string
}

func newInvalidBencodeError(pos int, msg string, vars ...interface{}) *InvalidBencodeError {
	return &InvalidBencodeError{Position: pos, msg: fmt.Sprintf(msg, vars...)}
}

func (e *InvalidBencodeError) Error() string {
	return fmt.Sprintf("bencode: invalid data at position %d: %s", e.Position, e.msg)
}

// Message is the description without the position prefix.
func (e *InvalidBencodeError) Message() string {
	return e.msg
}

// UnsupportedBencodeError reports input that is well formed but outside what this package can represent, such as an
// integer beyond 64 bits.
type UnsupportedBencodeError struct {
	Position int
	msg      string
}

func newUnsupportedBencodeError(pos int, msg string, vars ...interface{}) *UnsupportedBencodeError {
	return &UnsupportedBencodeError{Position: pos, msg: fmt.Sprintf(msg, vars...)}
}

func (e *UnsupportedBencodeError) Error() string {
	return fmt.Sprintf("bencode: unsupported data at position %d: %s", e.Position, e.msg)
}

func (e *UnsupportedBencodeError) Message() string {
	return e.msg
}

// DestinationTooSmallError is returned by a fixed-destination Writer that has no room left for a token.
type DestinationTooSmallError struct {
	What string
}

func (e *DestinationTooSmallError) Error() string {
	return fmt.Sprintf("bencode: reached end of destination buffer while writing %s", e.What)
}

// ErrorPosition extracts the position from a data error.
func ErrorPosition(err error) (int, bool) {
	var invalid *InvalidBencodeError
	if errors.As(err, &invalid) {
		return invalid.Position, true
	}
	var unsupported *UnsupportedBencodeError
	if errors.As(err, &unsupported) {
		return unsupported.Position, true
	}
	return 0, false
}

func invalidOperation(msg string, vars ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(msg, vars...))
}
