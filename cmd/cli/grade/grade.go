// Package grade implements the CLI command for grading a diagnosis against an
// installed case without running a session.
package grade

import (
	"log/slog"
	"os"
	"strings"

	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/grading"
	"github.com/opsdrill/opsdrill/internal/logging"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "grade",
	Title: "Grading",
}

var (
	sqliteURL string
	caseID    string
)

func init() {
	Submission.Flags().StringVar(&sqliteURL, "sqlite-url", "./opsdrill.sqlite", "SQLite URL")
	Submission.Flags().StringVar(&caseID, "case", "", "case id to grade against")
	_ = Submission.MarkFlagRequired("case")
}

var Submission = &cobra.Command{
	Use:     "submission --case <case-id> <diagnosis text>",
	GroupID: "grade",
	Short:   "Grade a diagnosis against a case rubric",
	Long:    "Grades free-text diagnosis against the rubric of an installed case. Useful for tuning rubric keywords while authoring.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})))

		db, err := sqlite.NewDatabase(ctx, sqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer func() { _ = db.Close() }()

		caseDef, err := repositories.NewCaseRepository(db, logger).GetCase(ctx, caseID)
		if err != nil {
			return errors.Wrap(err, "fetch case", slog.String("case_id", caseID))
		}

		result := grading.Grade(strings.Join(args, " "), caseDef.Rubric)
		cmd.Printf("verdict:    %s\n", result.Verdict)
		cmd.Printf("coverage:   %.2f (%d/%d keywords)\n",
			result.CoverageRatio, len(result.MatchedKeywords), len(caseDef.Rubric.Keywords))
		cmd.Printf("similarity: %.2f\n", result.DiagnosisSimilarity)
		if len(result.MatchedKeywords) > 0 {
			cmd.Printf("matched:    %s\n", strings.Join(result.MatchedKeywords, ", "))
		}
		return nil
	},
}
