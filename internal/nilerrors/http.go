package nilerrors

import "net/http"

// HTTPStatus maps a Kind to its HTTP status code. Unknown errors (not a
// tagged *Error) map to 500, matching "everything else is unexpected."
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case DataValidation, VariableInjection, QueryValidation, InvalidIndexOptions:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case PaymentRequired:
		return http.StatusPaymentRequired
	case Forbidden, ResourceAccessDenied:
		return http.StatusForbidden
	case CollectionNotFound, DocumentNotFound:
		return http.StatusNotFound
	case DuplicateEntry:
		return http.StatusConflict
	case Timeout:
		return http.StatusGatewayTimeout
	case DatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Render produces the {data: ...}-sibling error body used by the HTTP
// boundary: {"errors": [message]}, plus an optional machine code.
type Render struct {
	Errors []string `json:"errors"`
	Code   string   `json:"code,omitempty"`
}

// RenderError turns err into the wire body, using its Kind as the code when
// available.
func RenderError(err error) Render {
	e, ok := As(err)
	if !ok {
		return Render{Errors: []string{err.Error()}}
	}
	return Render{Errors: []string{e.Message}, Code: string(e.Kind)}
}
