package session

import (
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/models"
	"log/slog"
)

var (
	// ErrAllCluesRevealed is returned when a reveal is requested after every
	// clue of the case has already been disclosed.
	ErrAllCluesRevealed = errors.NewSentinel("all clues revealed")
	// ErrHintUnavailable is returned when a hint is requested for a clue that
	// is not revealed yet or has no authored hint.
	ErrHintUnavailable = errors.NewSentinel("hint unavailable")
	// ErrAlreadySubmitted is returned for any operation on a submitted
	// session, including repeated submissions.
	ErrAlreadySubmitted = errors.NewSentinel("session already submitted")
)

// revealNext reveals the next unrevealed clue in authored order.
//
// Clues are gated sequentially: a clue becomes available only after every
// clue before it has been revealed, so players cannot jump straight to the
// late clues that all but state the root cause. Since reveals always append
// the next authored clue, the revealed list stays a prefix of the authored
// order.
func revealNext(sess *models.Session, caseDef *models.CaseDefinition) (models.Clue, error) {
	if sess.State != models.SessionInProgress {
		return models.Clue{}, errors.Wrap(ErrAlreadySubmitted, "reveal clue", slog.String("session_id", sess.ID))
	}
	revealed := len(sess.Disclosure.RevealedClueIDs)
	if revealed >= len(caseDef.Clues) {
		return models.Clue{}, errors.Wrap(ErrAllCluesRevealed, "reveal clue",
			slog.String("session_id", sess.ID), slog.Int("clue_count", len(caseDef.Clues)))
	}
	clue := caseDef.Clues[revealed]
	sess.Disclosure.RevealedClueIDs = append(sess.Disclosure.RevealedClueIDs, clue.ID)
	return clue, nil
}

// revealHint returns the hint of a revealed clue and bills it once.
//
// Repeat calls for the same clue are idempotent: the hint is returned again
// without increasing HintsUsed. Billing a hint twice would double the penalty
// for information the player already has.
func revealHint(sess *models.Session, caseDef *models.CaseDefinition, clueID string) (string, error) {
	if sess.State != models.SessionInProgress {
		return "", errors.Wrap(ErrAlreadySubmitted, "reveal hint", slog.String("session_id", sess.ID))
	}
	clue, ok := caseDef.Clue(clueID)
	if !ok || !clue.HasHint() || !sess.Disclosure.Revealed(clueID) {
		return "", errors.Wrap(ErrHintUnavailable, "reveal hint",
			slog.String("session_id", sess.ID), slog.String("clue_id", clueID))
	}
	if !sess.Disclosure.HintUsed(clueID) {
		sess.Disclosure.UsedHintClueIDs = append(sess.Disclosure.UsedHintClueIDs, clueID)
		sess.HintsUsed++
	}
	return clue.Hint, nil
}
