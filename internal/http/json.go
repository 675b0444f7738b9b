package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// DecodeJSON decodes the request body into dst. Returns false with the
// error response already written on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_json",
			"message": "The request body could not be parsed.",
		})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client went away; nothing left to do.
		return
	}
}

// WriteAppError maps an application error onto an HTTP status and a safe
// JSON body. Internal detail stays out of the response.
func WriteAppError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		code = http.StatusNotFound
	case apperrors.IsConflict(err):
		code = http.StatusConflict
	case apperrors.IsValidation(err):
		code = http.StatusBadRequest
	case apperrors.IsPermission(err):
		code = http.StatusForbidden
	case apperrors.IsUnavailable(err):
		code = http.StatusServiceUnavailable
	case apperrors.IsTimeout(err):
		code = http.StatusGatewayTimeout
	}

	body := map[string]string{"error": string(apperrors.GetCode(err))}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		body["message"] = appErr.Message
	} else {
		body["message"] = http.StatusText(code)
	}
	if field := apperrors.GetField(err); field != "" {
		body["field"] = field
	}
	WriteJSON(w, code, body)
}
