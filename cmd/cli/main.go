package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/opsdrill/opsdrill/cmd/cli/content"
	"github.com/opsdrill/opsdrill/cmd/cli/grade"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(content.Group)
	rootCmd.AddCommand(content.Validate, content.Install, content.List)
	rootCmd.AddGroup(grade.Group)
	rootCmd.AddCommand(grade.Submission)
}

var rootCmd = &cobra.Command{
	Use:  "opsdrill-cli",
	Long: `Command line utilities for OpsDrill content authoring and grading`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
