package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure so callers can pick the message and the next
// step without inspecting transport details.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConnection Kind = "connection"
	KindServer     Kind = "server"
	KindDomain     Kind = "domain"
	KindPartial    Kind = "partial"
	KindUnknown    Kind = "unknown"
)

// User-facing messages shared by several screens.
const (
	MsgConnection = "Erro de conexão com o servidor. Verifique se o backend está rodando."
	MsgUnknown    = "Erro desconhecido. Tente novamente mais tarde."
)

var (
	// ErrPending is returned when a mutation is submitted while the previous
	// one is still in flight.
	ErrPending = errors.New("operation already in progress")
)

// Error is the only error type that crosses the service boundary.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a client-side precondition failure.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Domain builds a rejected state transition.
func Domain(message string, err error) *Error {
	return &Error{Kind: KindDomain, Message: message, Err: err}
}

// Connection builds a failure to reach the backend.
func Connection(err error) *Error {
	return &Error{Kind: KindConnection, Message: MsgConnection, Err: err}
}

// Unknown wraps anything that could not be classified.
func Unknown(err error) *Error {
	return &Error{Kind: KindUnknown, Message: MsgUnknown, Err: err}
}

// FromStatus maps a backend error response to an Error. The backend message
// is kept verbatim; fallback is used when the body carried none.
func FromStatus(status int, message, fallback string) *Error {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	kind := KindServer
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindDomain
	case status >= 500:
		kind = KindServer
	case status < 400:
		kind = KindUnknown
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if errors.Is(err, ErrPending) {
		return "Aguarde: a operação anterior ainda está em andamento."
	}
	return MsgUnknown
}

// Partial merges isolated failures of independent loads into one non-fatal
// error. It returns nil when nothing failed.
func Partial(errs ...error) error {
	var msgs []string
	var kept []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		kept = append(kept, err)
		msgs = append(msgs, Message(err))
	}
	if len(kept) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindPartial,
		Message: strings.Join(msgs, " "),
		Err:     errors.Join(kept...),
	}
}

// Wrapf prefixes the message of an Error, keeping its kind.
func Wrapf(err error, format string, args ...any) error {
	var e *Error
	if !errors.As(err, &e) {
		return fmt.Errorf(format+": %w", append(args, err)...)
	}
	cp := *e
	cp.Message = fmt.Sprintf(format, args...) + ": " + e.Message
	cp.Err = err
	return &cp
}
