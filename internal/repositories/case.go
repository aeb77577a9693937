package repositories

import (
	"context"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/sqlite"
	"log/slog"
)

// ErrCaseNotFound is returned when no case with the requested id exists.
var ErrCaseNotFound = errors.NewSentinel("case not found")

// CaseRepository is the read-only accessor over the case content store.
// GetCase returns a fresh value on every call; callers must treat it as
// immutable since the engine shares case data across concurrent sessions.
type CaseRepository struct {
	ro     *sqlx.DB
	logger *slog.Logger
}

func NewCaseRepository(db *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		ro:     sqlx.NewDb(db.ReadOnly, "sqlite3"),
		logger: logger.With("source", "CaseRepository"),
	}
}

type caseRow struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	Difficulty string `db:"difficulty"`
	Category   string `db:"category"`
	Diagnosis  string `db:"diagnosis"`
	RootCause  string `db:"root_cause"`
}

// GetCase fetches the case with the given id, including its clues in authored
// disclosure order and its grading rubric.
func (r *CaseRepository) GetCase(ctx context.Context, caseID string) (*models.CaseDefinition, error) {
	var row caseRow
	stmt := `SELECT id, title, difficulty, category, diagnosis, root_cause FROM cases WHERE id = ?`
	if err := r.ro.GetContext(ctx, &row, stmt, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrCaseNotFound, "read case", slog.String("case_id", caseID))
		}
		return nil, errors.Wrap(err, "read case", slog.String("case_id", caseID))
	}

	var clues []models.Clue
	stmt = `SELECT id, title, type, content, hint FROM clues WHERE case_id = ? ORDER BY position`
	if err := r.ro.SelectContext(ctx, &clues, stmt, caseID); err != nil {
		return nil, errors.Wrap(err, "read clues", slog.String("case_id", caseID))
	}

	var keywords []string
	stmt = `SELECT keyword FROM case_keywords WHERE case_id = ? ORDER BY keyword`
	if err := r.ro.SelectContext(ctx, &keywords, stmt, caseID); err != nil {
		return nil, errors.Wrap(err, "read keywords", slog.String("case_id", caseID))
	}

	caseDefinition := models.CaseDefinition{
		ID:         row.ID,
		Title:      row.Title,
		Difficulty: row.Difficulty,
		Category:   row.Category,
		Clues:      clues,
		Rubric: models.SolutionRubric{
			Diagnosis: row.Diagnosis,
			Keywords:  keywords,
			RootCause: row.RootCause,
		},
	}

	return &caseDefinition, nil
}

// ListCases returns catalog summaries for all cases ordered by id.
func (r *CaseRepository) ListCases(ctx context.Context) ([]models.CaseSummary, error) {
	var summaries []models.CaseSummary
	stmt := `SELECT c.id, c.title, c.difficulty, c.category, COUNT(cl.id) AS clue_count
	FROM cases c
	LEFT JOIN clues cl ON cl.case_id = c.id
	GROUP BY c.id
	ORDER BY c.id`
	if err := r.ro.SelectContext(ctx, &summaries, stmt); err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	return summaries, nil
}
