package dictprotocol

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes client errors.
type ErrorKind int

const (
	// KindServerError is a reply code the operation does not expect.
	KindServerError ErrorKind = iota
	// KindHandshakeFailed indicates the connection or greeting failed.
	KindHandshakeFailed
	// KindNotConnected indicates a request on a session that is not connected.
	KindNotConnected
	// KindMalformedResponse indicates a line that is not a valid status line.
	KindMalformedResponse
	// KindUnexpectedEndOfStream indicates the transport ended mid-response.
	KindUnexpectedEndOfStream
	// KindProtocolViolation indicates a reply whose shape or counts are wrong.
	KindProtocolViolation
	// KindInvalidDatabase is status 550.
	KindInvalidDatabase
	// KindInvalidStrategy is status 551.
	KindInvalidStrategy
	// KindNoDatabasesAvailable is status 554.
	KindNoDatabasesAvailable
	// KindNoStrategiesAvailable is status 555.
	KindNoStrategiesAvailable
	// KindInvalidArgument indicates a command argument that cannot be
	// sent on one line. Nothing is written to the server.
	KindInvalidArgument
	// KindAlreadyConnected indicates Connect on a connected session.
	KindAlreadyConnected
)

var kindNames = map[ErrorKind]string{
	KindServerError:           "server error",
	KindHandshakeFailed:       "handshake failed",
	KindNotConnected:          "not connected",
	KindMalformedResponse:     "malformed response",
	KindUnexpectedEndOfStream: "unexpected end of stream",
	KindProtocolViolation:     "protocol violation",
	KindInvalidDatabase:       "invalid database",
	KindInvalidStrategy:       "invalid strategy",
	KindNoDatabasesAvailable:  "no databases available",
	KindNoStrategiesAvailable: "no strategies available",
	KindInvalidArgument:       "invalid argument",
	KindAlreadyConnected:      "already connected",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by the client.
//
// Code and Detail carry the server's status line when there was one, so
// callers can display the server's text verbatim. Err holds the transport
// or parse cause, if any.
type Error struct {
	Kind   ErrorKind
	Code   int
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Code != 0 {
		msg = fmt.Sprintf("%s: %d %s", msg, e.Code, e.Detail)
	} else if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the exported sentinels work
// with errors.Is regardless of code and detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrHandshakeFailed       = &Error{Kind: KindHandshakeFailed}
	ErrNotConnected          = &Error{Kind: KindNotConnected}
	ErrMalformedResponse     = &Error{Kind: KindMalformedResponse}
	ErrUnexpectedEndOfStream = &Error{Kind: KindUnexpectedEndOfStream}
	ErrProtocolViolation     = &Error{Kind: KindProtocolViolation}
	ErrInvalidDatabase       = &Error{Kind: KindInvalidDatabase}
	ErrInvalidStrategy       = &Error{Kind: KindInvalidStrategy}
	ErrNoDatabasesAvailable  = &Error{Kind: KindNoDatabasesAvailable}
	ErrNoStrategiesAvailable = &Error{Kind: KindNoStrategiesAvailable}
	ErrServerError           = &Error{Kind: KindServerError}
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument}
	ErrAlreadyConnected      = &Error{Kind: KindAlreadyConnected}
)

// KindOf returns the kind of err when it is an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// fatal reports whether err leaves the connection in an unknown framing
// state, so the session must be torn down.
func fatal(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return true
	}
	switch kind {
	case KindUnexpectedEndOfStream, KindMalformedResponse, KindProtocolViolation, KindHandshakeFailed:
		return true
	default:
		return false
	}
}

func newStatusError(kind ErrorKind, st Status) error {
	return &Error{Kind: kind, Code: st.Code, Detail: st.Detail}
}

func newMalformedError(line string) error {
	return &Error{Kind: KindMalformedResponse, Detail: fmt.Sprintf("%q", line)}
}

func newViolationError(format string, args ...any) error {
	return &Error{Kind: KindProtocolViolation, Detail: fmt.Sprintf(format, args...)}
}

func newEOFError(cause error) error {
	return &Error{Kind: KindUnexpectedEndOfStream, Err: cause}
}

func newNotConnectedError(detail string) error {
	return &Error{Kind: KindNotConnected, Detail: detail}
}

func newArgumentError(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Detail: fmt.Sprintf(format, args...)}
}

func newHandshakeError(detail string, cause error) error {
	return &Error{Kind: KindHandshakeFailed, Detail: detail, Err: cause}
}
