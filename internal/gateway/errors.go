package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNetwork      Kind = "network"
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindRejected     Kind = "rejected"
	KindUnknown      Kind = "unknown"
)

const (
	MessageNetwork      = "Error de conexión con el servidor. Verifica tu conexión a internet."
	MessageBadRequest   = "La solicitud contiene datos inválidos."
	MessageUnauthorized = "Sesión expirada. Por favor, inicia sesión nuevamente."
	MessageForbidden    = "No tienes permisos para realizar esta acción."
	MessageNotFound     = "El recurso solicitado no fue encontrado."
	MessageServer       = "Error del servidor. Por favor, intenta más tarde."
	MessageUnknown      = "Ocurrió un error inesperado"
)

// Error is the only failure shape returned by the client. Status is 0 when
// the request never produced an HTTP response.
type Error struct {
	Status  int
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s (status %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func normalize(status int, serverMessage string) *Error {
	kind, message := classify(status)
	if serverMessage != "" && kind != KindServer {
		message = serverMessage
	}
	return &Error{Status: status, Kind: kind, Message: message}
}

func classify(status int) (Kind, string) {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest, MessageBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized, MessageUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden, MessageForbidden
	case status == http.StatusNotFound:
		return KindNotFound, MessageNotFound
	case status >= http.StatusInternalServerError:
		return KindServer, MessageServer
	default:
		return KindUnknown, MessageUnknown
	}
}

func networkError(err error) *Error {
	return &Error{Status: 0, Kind: KindNetwork, Message: MessageNetwork, Err: err}
}

func rejected(status int, serverMessage string) *Error {
	message := serverMessage
	if message == "" {
		message = MessageUnknown
	}
	return &Error{Status: status, Kind: KindRejected, Message: message}
}

func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindUnauthorized
}

func IsForbidden(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindForbidden
}

func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNotFound
}

// Message returns the text a screen shows for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return MessageUnknown
}
