// Package content implements the CLI commands for authoring content packs:
// validating case documents and installing them into a content store.
package content

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/opsdrill/opsdrill/internal/contentpack"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/logging"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "content",
	Title: "Content packs",
}

var (
	installSqliteURL string
	listSqliteURL    string
)

func init() {
	Install.Flags().StringVar(&installSqliteURL, "sqlite-url", "./opsdrill.sqlite", "SQLite URL")
	List.Flags().StringVar(&listSqliteURL, "sqlite-url", "./opsdrill.sqlite", "SQLite URL")
}

// newLogger logs to stderr so that command output on stdout stays parseable.
func newLogger() *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
}

var Validate = &cobra.Command{
	Use:     "validate <dir>",
	GroupID: "content",
	Short:   "Validate case documents",
	Long:    "Validates every YAML case document in a directory against the case schema",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := contentpack.LoadDir(args[0])
		if err != nil {
			return errors.Wrap(err, "validate content pack")
		}
		for _, caseDef := range cases {
			cmd.Printf("%s: ok (%d clues, %d keywords)\n",
				caseDef.ID, len(caseDef.Clues), len(caseDef.Rubric.Keywords))
		}
		return nil
	},
}

var Install = &cobra.Command{
	Use:     "install <dir>",
	GroupID: "content",
	Short:   "Install case documents into the content store",
	Long:    "Validates every YAML case document in a directory and upserts them into the SQLite content store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cases, err := contentpack.LoadDir(args[0])
		if err != nil {
			return errors.Wrap(err, "load content pack")
		}

		db, err := sqlite.NewDatabase(ctx, installSqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer func() { _ = db.Close() }()

		if err = contentpack.NewInstaller(db, logger).Install(ctx, cases...); err != nil {
			return errors.Wrap(err, "install content pack")
		}
		cmd.Printf("installed %d cases\n", len(cases))
		return nil
	},
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "content",
	Short:   "List installed cases",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		db, err := sqlite.NewDatabase(ctx, listSqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer func() { _ = db.Close() }()

		summaries, err := repositories.NewCaseRepository(db, logger).ListCases(ctx)
		if err != nil {
			return errors.Wrap(err, "list cases")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY\tCATEGORY\tCLUES")
		for _, s := range summaries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Title, s.Difficulty, s.Category, s.ClueCount)
		}
		return w.Flush()
	},
}
