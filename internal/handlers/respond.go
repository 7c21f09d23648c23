package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

const maxBodyBytes = 1 << 20

var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "internal server error",
	http.StatusServiceUnavailable:  "service unavailable",
}

var errBadBody = errors.New("request body must be a JSON object")

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type drinksEnvelope struct {
	Success bool               `json:"success"`
	Drinks  []models.DrinkView `json:"drinks"`
}

type deleteEnvelope struct {
	Success bool `json:"success"`
	Delete  uint `json:"delete"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(r.Context(), "failed to encode json response", "status", status, "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = statusMessages[status]
	}
	writeJSON(w, r, status, errorEnvelope{Success: false, Error: status, Message: message})
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int) {
	writeJSONError(w, r, status, "")
}

// InternalServerError renders the 500 envelope.
func InternalServerError(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusInternalServerError)
}

// NotFound renders the JSON 404 envelope for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "route not found", "method", r.Method, "path", r.URL.Path)
	writeStatus(w, r, http.StatusNotFound)
}

// MethodNotAllowed renders the JSON 405 envelope and advertises allowed methods.
func MethodNotAllowed(allowed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		writeStatus(w, r, http.StatusMethodNotAllowed)
	}
}

// decodeObject reads the request body as a JSON object, keeping each member raw
// so callers can tell absent, null and falsy values apart.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	if r.Body == nil {
		return nil, errBadBody
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errBadBody
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errBadBody
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// isFalsy treats null, false, 0, "", [] and {} as not provided.
func isFalsy(raw json.RawMessage) bool {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
