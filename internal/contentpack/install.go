package contentpack

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/sqlite"
)

// Installer writes validated cases into the content store.
type Installer struct {
	rw     *sqlx.DB
	logger *slog.Logger
}

func NewInstaller(db *sqlite.Database, logger *slog.Logger) *Installer {
	return &Installer{
		rw:     sqlx.NewDb(db.ReadWrite, "sqlite3"),
		logger: logger.With("source", "contentpack.Installer"),
	}
}

// Install upserts the given cases in one transaction. Re-installing a case
// replaces its clues and keywords wholesale so removed clues do not linger.
func (i *Installer) Install(ctx context.Context, cases ...*models.CaseDefinition) error {
	tx, err := i.rw.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin install transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, caseDef := range cases {
		if err = installCase(ctx, tx, caseDef); err != nil {
			return errors.Wrap(err, "install case", slog.String("case_id", caseDef.ID))
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit install transaction")
	}
	for _, caseDef := range cases {
		i.logger.LogAttrs(ctx, slog.LevelInfo, "case installed",
			slog.String("case_id", caseDef.ID),
			slog.Int("clues", len(caseDef.Clues)))
	}
	return nil
}

func installCase(ctx context.Context, tx *sqlx.Tx, caseDef *models.CaseDefinition) error {
	stmt := `INSERT INTO cases (id, title, difficulty, category, diagnosis, root_cause)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		difficulty = excluded.difficulty,
		category = excluded.category,
		diagnosis = excluded.diagnosis,
		root_cause = excluded.root_cause`
	if _, err := tx.ExecContext(ctx, stmt, caseDef.ID, caseDef.Title, caseDef.Difficulty,
		caseDef.Category, caseDef.Rubric.Diagnosis, caseDef.Rubric.RootCause); err != nil {
		return errors.Wrap(err, "upsert case")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clues WHERE case_id = ?`, caseDef.ID); err != nil {
		return errors.Wrap(err, "clear clues")
	}
	stmt = `INSERT INTO clues (case_id, id, position, title, type, content, hint)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	for position, clue := range caseDef.Clues {
		if _, err := tx.ExecContext(ctx, stmt, caseDef.ID, clue.ID, position,
			clue.Title, string(clue.Type), clue.Content, clue.Hint); err != nil {
			return errors.Wrap(err, "insert clue", slog.String("clue_id", clue.ID))
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM case_keywords WHERE case_id = ?`, caseDef.ID); err != nil {
		return errors.Wrap(err, "clear keywords")
	}
	for _, keyword := range caseDef.Rubric.Keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO case_keywords (case_id, keyword) VALUES (?, ?)`, caseDef.ID, keyword); err != nil {
			return errors.Wrap(err, "insert keyword", slog.String("keyword", keyword))
		}
	}
	return nil
}
