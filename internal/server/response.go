package server

import (
	"encoding/json"
	"net/http"

	"github.com/nilnode/nildb/internal/nilerrors"
)

// JSON writes data as the response body with status, unchanged: it adds no
// envelope, so handlers pass their success payload already wrapped (as
// {"data": ...} everywhere except the health check).
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError renders err through nilerrors' HTTP mapping: status code from
// its Kind, body from its Render.
func WriteError(w http.ResponseWriter, err error) {
	JSON(w, nilerrors.HTTPStatus(err), nilerrors.RenderError(err))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nilerrors.Wrap(nilerrors.DataValidation, "decoding request body", err)
	}
	return nil
}
