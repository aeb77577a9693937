// Package session orchestrates a single player's attempt at one incident
// case: it fetches the case, reveals clues and hints in authored order,
// grades the submitted diagnosis, and settles the final score.
package session

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/opsdrill/opsdrill/internal/broker"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/grading"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/random"
)

// Scoring constants. The penalty punishes leaning on disclosure: clues beyond
// par cost a little, hints cost more, and the total penalty is capped so that
// a solved case never reads as a disaster.
const (
	pointsPerExtraClue = 5
	pointsPerHint      = 8
	maxPenalty         = 40
	// correctScoreFloor guarantees that a CORRECT verdict scores at least 60
	// no matter how much help was used.
	correctScoreFloor = 60

	sessionIDLength uint = 20
)

// CaseGetter is the read-only boundary to the case content store.
type CaseGetter interface {
	GetCase(ctx context.Context, caseID string) (*models.CaseDefinition, error)
}

// Engine drives drill sessions. Operations on the same session id are
// serialized with a per-session mutex; operations on different sessions run
// independently. The only shared state between sessions is the immutable
// case definition.
type Engine struct {
	cases  CaseGetter
	store  Store
	events *broker.Broker[string, Event]
	logger *slog.Logger

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	channels map[string]chan Event
}

// NewEngine creates an Engine. The events broker may be nil when nothing
// consumes disclosure events, e.g. in the CLI.
func NewEngine(cases CaseGetter, store Store, events *broker.Broker[string, Event], logger *slog.Logger) *Engine {
	return &Engine{
		cases:    cases,
		store:    store,
		events:   events,
		logger:   logger.With("source", "session.Engine"),
		locks:    make(map[string]*sync.Mutex),
		channels: make(map[string]chan Event),
	}
}

// StartSession creates a session for the given case and moves it straight to
// in progress. It fails with the repository's not-found error for unknown
// case ids.
func (e *Engine) StartSession(ctx context.Context, caseID string) (*models.Session, error) {
	if _, err := e.cases.GetCase(ctx, caseID); err != nil {
		return nil, errors.Wrap(err, "fetch case", slog.String("case_id", caseID))
	}

	id, err := random.Letters(sessionIDLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate session id")
	}

	sess := &models.Session{
		ID:        id,
		CaseID:    caseID,
		State:     models.SessionNotStarted,
		StartedAt: time.Now().UTC(),
	}
	sess.State = models.SessionInProgress

	if err = e.store.Put(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "store session")
	}

	events := e.openEventChannel(id)
	e.emit(events, Event{
		Type:      EventSessionStarted,
		SessionID: id,
		CaseID:    caseID,
		At:        time.Now().UTC(),
	})
	e.logger.LogAttrs(ctx, slog.LevelInfo, "session started",
		slog.String("session_id", id), slog.String("case_id", caseID))

	return sess, nil
}

// GetSession returns the current state of a session.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get session", slog.String("session_id", sessionID))
	}
	return sess, nil
}

// RequestClue reveals the next unrevealed clue in authored order. It fails
// with ErrAllCluesRevealed once every clue is disclosed and with
// ErrAlreadySubmitted on a submitted session.
func (e *Engine) RequestClue(ctx context.Context, sessionID string) (models.Clue, error) {
	unlock := e.lockSession(sessionID)
	defer unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return models.Clue{}, errors.Wrap(err, "get session", slog.String("session_id", sessionID))
	}
	caseDef, err := e.cases.GetCase(ctx, sess.CaseID)
	if err != nil {
		return models.Clue{}, errors.Wrap(err, "fetch case", slog.String("case_id", sess.CaseID))
	}

	clue, err := revealNext(sess, caseDef)
	if err != nil {
		return models.Clue{}, err
	}
	if err = e.store.Put(ctx, sess); err != nil {
		return models.Clue{}, errors.Wrap(err, "store session")
	}

	e.emit(e.eventChannel(sessionID), Event{
		Type:      EventClueRevealed,
		SessionID: sessionID,
		CaseID:    sess.CaseID,
		ClueID:    clue.ID,
		At:        time.Now().UTC(),
	})

	return clue, nil
}

// RequestHint returns the hint for a revealed clue. The first call bills the
// hint against the final score; repeat calls return the same hint without
// billing it again.
func (e *Engine) RequestHint(ctx context.Context, sessionID, clueID string) (string, error) {
	unlock := e.lockSession(sessionID)
	defer unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return "", errors.Wrap(err, "get session", slog.String("session_id", sessionID))
	}
	caseDef, err := e.cases.GetCase(ctx, sess.CaseID)
	if err != nil {
		return "", errors.Wrap(err, "fetch case", slog.String("case_id", sess.CaseID))
	}

	hint, err := revealHint(sess, caseDef, clueID)
	if err != nil {
		return "", err
	}
	if err = e.store.Put(ctx, sess); err != nil {
		return "", errors.Wrap(err, "store session")
	}

	e.emit(e.eventChannel(sessionID), Event{
		Type:      EventHintRevealed,
		SessionID: sessionID,
		CaseID:    sess.CaseID,
		ClueID:    clueID,
		At:        time.Now().UTC(),
	})

	return hint, nil
}

// Submit grades the guess, settles the final score, and closes the session.
// It is single-use: repeat calls fail with ErrAlreadySubmitted and leave the
// stored outcome untouched.
func (e *Engine) Submit(ctx context.Context, sessionID, guess string) (*models.Outcome, error) {
	unlock := e.lockSession(sessionID)
	defer unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get session", slog.String("session_id", sessionID))
	}
	if sess.State != models.SessionInProgress {
		return nil, errors.Wrap(ErrAlreadySubmitted, "submit", slog.String("session_id", sessionID))
	}
	caseDef, err := e.cases.GetCase(ctx, sess.CaseID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch case", slog.String("case_id", sess.CaseID))
	}

	result := grading.Grade(guess, caseDef.Rubric)
	penalty := disclosurePenalty(sess, caseDef)
	outcome := &models.Outcome{
		Score:     finalScore(result, penalty),
		Penalty:   penalty,
		Grading:   result,
		RootCause: caseDef.Rubric.RootCause,
		GradedAt:  time.Now().UTC(),
	}

	sess.State = models.SessionSubmitted
	sess.Outcome = outcome
	if err = e.store.Put(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "store session")
	}

	e.emit(e.eventChannel(sessionID), Event{
		Type:      EventSubmitted,
		SessionID: sessionID,
		CaseID:    sess.CaseID,
		Outcome:   outcome,
		At:        time.Now().UTC(),
	})
	e.closeEventChannel(sessionID)
	e.logger.LogAttrs(ctx, slog.LevelInfo, "session submitted",
		slog.String("session_id", sessionID),
		slog.String("verdict", string(result.Verdict)),
		slog.Int("score", outcome.Score))

	return outcome, nil
}

// Abandon destroys an unfinished session without grading it.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "get session", slog.String("session_id", sessionID))
	}
	if err = e.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, "delete session", slog.String("session_id", sessionID))
	}

	e.emit(e.eventChannel(sessionID), Event{
		Type:      EventAbandoned,
		SessionID: sessionID,
		CaseID:    sess.CaseID,
		At:        time.Now().UTC(),
	})
	e.closeEventChannel(sessionID)
	e.dropLock(sessionID)
	return nil
}

// disclosurePenalty derives the penalty from clues revealed beyond par and
// hints consumed. Par is the authored clue count minus one: the final,
// highest-value clue should not be needed to solve the case.
func disclosurePenalty(sess *models.Session, caseDef *models.CaseDefinition) int {
	parClues := len(caseDef.Clues) - 1
	extraClues := len(sess.Disclosure.RevealedClueIDs) - parClues
	if extraClues < 0 {
		extraClues = 0
	}
	penalty := extraClues*pointsPerExtraClue + sess.HintsUsed*pointsPerHint
	if penalty > maxPenalty {
		penalty = maxPenalty
	}
	return penalty
}

// finalScore combines keyword coverage with the disclosure penalty, clamped
// to [0, 100]. A CORRECT verdict is floored at 60: solving the case with
// extra help must never read as a failing score.
func finalScore(result models.GradingResult, penalty int) int {
	score := int(math.Round(result.CoverageRatio*100)) - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if result.Verdict == models.VerdictCorrect && score < correctScoreFloor {
		score = correctScoreFloor
	}
	return score
}

// lockSession serializes operations per session id.
func (e *Engine) lockSession(sessionID string) func() {
	e.mu.Lock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (e *Engine) dropLock(sessionID string) {
	e.mu.Lock()
	delete(e.locks, sessionID)
	e.mu.Unlock()
}

// openEventChannel registers a buffered event channel for the session with
// the broker. Returns nil when no broker is configured.
func (e *Engine) openEventChannel(sessionID string) chan Event {
	if e.events == nil {
		return nil
	}
	channel := make(chan Event, eventBufferSize)
	e.mu.Lock()
	e.channels[sessionID] = channel
	e.mu.Unlock()
	e.events.Publish(sessionID, channel)
	return channel
}

func (e *Engine) eventChannel(sessionID string) chan Event {
	if e.events == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels[sessionID]
}

// closeEventChannel ends the session's event stream and releases any waiting
// subscribers.
func (e *Engine) closeEventChannel(sessionID string) {
	if e.events == nil {
		return
	}
	e.mu.Lock()
	channel, ok := e.channels[sessionID]
	delete(e.channels, sessionID)
	e.mu.Unlock()
	if ok {
		close(channel)
		e.events.Unpublish(sessionID)
	}
}
