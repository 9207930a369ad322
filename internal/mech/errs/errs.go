// Package errs defines the typed error kinds produced by the specMech
// client and coordinator, replacing the exception hierarchy of the
// source implementation with a tagged error union.
package errs

import (
	"errors"
	"fmt"

	"github.com/stlalpha/specmech/internal/mech/frame"
)

// Kind classifies an Error.
type Kind int

const (
	KindProtocol Kind = iota
	KindReply
	KindControllerRebooted
	KindConnectionFailed
	KindMechanismTransition
	KindMotorBusy
	KindLimitSwitch
	KindOutOfRange
	KindMoveDidNotConverge
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol error"
	case KindReply:
		return "reply error"
	case KindControllerRebooted:
		return "controller rebooted"
	case KindConnectionFailed:
		return "connection failed"
	case KindMechanismTransition:
		return "mechanism transition error"
	case KindMotorBusy:
		return "motor busy"
	case KindLimitSwitch:
		return "limit switch error"
	case KindOutOfRange:
		return "out of range error"
	case KindMoveDidNotConverge:
		return "move did not converge"
	case KindConfig:
		return "config error"
	default:
		return "unknown error"
	}
}

// Error is the single error type returned across package mech
// boundaries. Callers switch on Kind, not on the concrete type.
type Error struct {
	Kind    Kind
	Message string
	// ReplyCode, if non-zero, preserves the frame.Code that produced
	// a KindProtocol or KindReply error.
	ReplyCode frame.Code
	// WireCode and WireMessage carry the specMech "$S2ERR,<code>,<msg>"
	// payload for a KindReply error.
	WireCode    string
	WireMessage string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

// Is allows errors.Is(err, errs.ErrControllerRebooted) style checks
// via a Kind-only sentinel comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels usable with errors.Is for the kinds that callers most
// commonly branch on.
var (
	ErrControllerRebooted = &Error{Kind: KindControllerRebooted}
	ErrConnectionFailed   = &Error{Kind: KindConnectionFailed}
)

// CheckReply inspects a decoded frame.Reply and, if it represents a
// failure, returns the typed error a caller should surface. It returns
// nil for frame.Valid and frame.RebootAcknowledged, mirroring the
// source's check_reply: those two codes are the only ones that do not
// raise.
func CheckReply(reply frame.Reply) error {
	if reply.Code == frame.ErrInReply {
		if s, ok := reply.Sentence("ERR"); ok {
			code, msg := s.Field(0), s.Field(1)
			return &Error{
				Kind:        KindReply,
				Message:     fmt.Sprintf("error %s found in specMech reply: %q", code, msg),
				ReplyCode:   reply.Code,
				WireCode:    code,
				WireMessage: msg,
			}
		}
		return &Error{Kind: KindReply, Message: "error reply with no ERR sentence", ReplyCode: reply.Code}
	}

	if reply.Code == frame.ControllerRebooted {
		return &Error{
			Kind:      KindControllerRebooted,
			Message:   "the specMech controller has rebooted; acknowledge the reboot before continuing",
			ReplyCode: reply.Code,
		}
	}

	if reply.Code == frame.ConnectionFailed {
		return &Error{
			Kind:      KindConnectionFailed,
			Message:   "the connection to the specMech failed; try reconnecting",
			ReplyCode: reply.Code,
		}
	}

	if reply.Code != frame.Valid && reply.Code != frame.RebootAcknowledged {
		return &Error{
			Kind:      KindProtocol,
			Message:   fmt.Sprintf("failed parsing specMech reply: %s", reply.Code),
			ReplyCode: reply.Code,
		}
	}

	return nil
}

// As is a thin re-export of errors.As so callers of this package don't
// need a second import for the common case of unwrapping to *Error.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
