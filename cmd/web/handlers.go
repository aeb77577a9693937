package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/justinas/nosurf"
	"github.com/opsdrill/opsdrill/internal/session"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// csrfToken hands the CSRF token to API clients, which send it back in the
// X-CSRF-Token header on mutating requests.
func (app *application) csrfToken(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, envelope{"csrf_token": nosurf.Token(r)})
}

func (app *application) listCases(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.cases.ListCases(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"cases": summaries})
}

// ownershipKey is the cookie-session key that ties a drill session to the
// browser that started it. Other browsers get a 404, never a 403, so that
// session ids cannot be probed.
func ownershipKey(sessionID string) string {
	return fmt.Sprintf("drill:%s", sessionID)
}

func (app *application) ownsSession(r *http.Request, sessionID string) bool {
	return app.sessionManager.GetBool(r.Context(), ownershipKey(sessionID))
}

func (app *application) startSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CaseID string `json:"case_id"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	sess, err := app.engine.StartSession(r.Context(), input.CaseID)
	if err != nil {
		app.engineError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), ownershipKey(sess.ID), true)

	app.writeJSON(w, r, http.StatusCreated, sess)
}

func (app *application) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}

	sess, err := app.engine.GetSession(r.Context(), sessionID)
	if err != nil {
		app.engineError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}

func (app *application) requestClue(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}

	clue, err := app.engine.RequestClue(r.Context(), sessionID)
	if err != nil {
		app.engineError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, clue)
}

func (app *application) requestHint(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}

	hint, err := app.engine.RequestHint(r.Context(), sessionID, r.PathValue("clueID"))
	if err != nil {
		app.engineError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"hint": hint})
}

func (app *application) submitDiagnosis(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}

	var input struct {
		Diagnosis string `json:"diagnosis"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	outcome, err := app.engine.Submit(r.Context(), sessionID, input.Diagnosis)
	if err != nil {
		app.engineError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, outcome)
}

func (app *application) abandonSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}

	if err := app.engine.Abandon(r.Context(), sessionID); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), ownershipKey(sessionID))

	w.WriteHeader(http.StatusNoContent)
}

// streamEvents streams disclosure events for an in-progress session as
// server-sent events. The stream ends when the session is submitted or
// abandoned; clients then fetch the persisted session for the outcome.
func (app *application) streamEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if !app.ownsSession(r, sessionID) {
		app.notFound(w, r)
		return
	}
	if _, err := app.engine.GetSession(r.Context(), sessionID); err != nil {
		app.engineError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	rc := http.NewResponseController(w)

	var events chan session.Event
	select {
	case events = <-app.events.Subscribe(sessionID):
	case <-r.Context().Done():
		return
	}
	if events == nil {
		// The session already reached a terminal state, or another stream
		// holds the channel. Tell the client to fall back to the session
		// resource.
		_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
		_ = rc.Flush()
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				app.serverError(w, r, err)
				return
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			if err = rc.Flush(); err != nil {
				return
			}
		}
	}
}
