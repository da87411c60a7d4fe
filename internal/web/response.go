package web

import (
	"encoding/json"
	"net/http"

	"github.com/fd1az/tonswap/internal/apperror"
)

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {success: false, error} with the error's status code.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, apperror.StatusCode(err), map[string]any{
		"success": false,
		"error":   apperror.PublicMessage(err),
		"code":    apperror.GetCode(err),
	})
}

// DecodeJSON decodes the request body into v. Failures are MALFORMED_MESSAGE.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.New(apperror.CodeMalformedMessage, apperror.WithCause(err))
	}
	return nil
}
