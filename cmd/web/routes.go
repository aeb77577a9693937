package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	cookieSession := alice.New(app.sessionManager.LoadAndSave)
	// Server-sent events keep the response open, which the session library's
	// LoadAndSave cannot handle. Load-only is enough: streaming never mutates
	// the cookie session.
	sse := alice.New(app.serverSentEventMiddleware)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf", cookieSession.ThenFunc(app.csrfToken))
	mux.Handle("GET /api/cases", cookieSession.ThenFunc(app.listCases))

	mux.Handle("POST /api/sessions", cookieSession.ThenFunc(app.startSession))
	mux.Handle("GET /api/sessions/{sessionID}", cookieSession.ThenFunc(app.getSession))
	mux.Handle("POST /api/sessions/{sessionID}/clues", cookieSession.ThenFunc(app.requestClue))
	mux.Handle("POST /api/sessions/{sessionID}/hints/{clueID}", cookieSession.ThenFunc(app.requestHint))
	mux.Handle("POST /api/sessions/{sessionID}/submission", cookieSession.ThenFunc(app.submitDiagnosis))
	mux.Handle("DELETE /api/sessions/{sessionID}", cookieSession.ThenFunc(app.abandonSession))
	mux.Handle("GET /api/sessions/{sessionID}/events", sse.ThenFunc(app.streamEvents))

	return app.recoverPanic(app.logRequest(commonHeaders(noSurf(mux))))
}
