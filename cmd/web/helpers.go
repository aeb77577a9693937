package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/session"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError,
		envelope{"error": http.StatusText(http.StatusInternalServerError)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Debug(message, "status", status, "method", method, "uri", uri)
	app.writeJSON(w, r, status, envelope{"error": message})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "not found")
}

// engineError maps the engine's sentinel errors to API status codes. Unknown
// errors stay internal.
func (app *application) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrCaseNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		app.notFound(w, r)
	case errors.Is(err, session.ErrAllCluesRevealed):
		app.clientError(w, r, http.StatusConflict, "all clues revealed")
	case errors.Is(err, session.ErrHintUnavailable):
		app.clientError(w, r, http.StatusConflict, "hint unavailable")
	case errors.Is(err, session.ErrAlreadySubmitted):
		app.clientError(w, r, http.StatusConflict, "diagnosis already submitted")
	default:
		app.serverError(w, r, err)
	}
}

type envelope map[string]any

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
