// Package contentpack loads authored incident cases from YAML documents,
// validates them against a JSON schema, and installs them into the content
// store.
package contentpack

import (
	"bytes"
	_ "embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidCase marks documents that fail schema or consistency checks.
var ErrInvalidCase = errors.NewSentinel("invalid case document")

var caseSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("case-v1.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("case-v1.schema.json")
}

// caseDocument mirrors the YAML shape of one authored case.
type caseDocument struct {
	ID         string         `yaml:"id"`
	Title      string         `yaml:"title"`
	Difficulty string         `yaml:"difficulty"`
	Category   string         `yaml:"category"`
	Clues      []clueDocument `yaml:"clues"`
	Rubric     rubricDocument `yaml:"rubric"`
}

type clueDocument struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Type    string `yaml:"type"`
	Content string `yaml:"content"`
	Hint    string `yaml:"hint"`
}

type rubricDocument struct {
	Diagnosis string   `yaml:"diagnosis"`
	Keywords  []string `yaml:"keywords"`
	RootCause string   `yaml:"root_cause"`
}

// Load parses and validates a single YAML case document.
func Load(r io.Reader) (*models.CaseDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read case document")
	}

	// Validate the generic YAML tree first so authoring mistakes surface as
	// schema errors with paths instead of zero-valued fields.
	var instance any
	if err = yaml.Unmarshal(data, &instance); err != nil {
		return nil, errors.Wrap(errors.Join(ErrInvalidCase, err), "parse case document")
	}
	if err = caseSchema.Validate(instance); err != nil {
		return nil, errors.Wrap(errors.Join(ErrInvalidCase, err), "validate case document")
	}

	var doc caseDocument
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode case document")
	}

	caseDef := doc.toCaseDefinition()
	if err = checkConsistency(caseDef); err != nil {
		return nil, err
	}
	return caseDef, nil
}

// LoadFile loads one case from a YAML file on disk.
func LoadFile(path string) (*models.CaseDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open case file", slog.String("path", path))
	}
	defer func() { _ = f.Close() }()

	caseDef, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(err, "load case file", slog.String("path", path))
	}
	return caseDef, nil
}

// LoadDir loads every .yaml and .yml file in dir, in lexical order. Case ids
// must be unique across the directory.
func LoadDir(dir string) ([]*models.CaseDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read content directory", slog.String("dir", dir))
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	cases := make([]*models.CaseDefinition, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		caseDef, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[caseDef.ID]; ok {
			return nil, errors.Wrap(ErrInvalidCase, "duplicate case id",
				slog.String("case_id", caseDef.ID),
				slog.String("path", path),
				slog.String("previous", previous))
		}
		seen[caseDef.ID] = path
		cases = append(cases, caseDef)
	}
	return cases, nil
}

func (doc caseDocument) toCaseDefinition() *models.CaseDefinition {
	clues := make([]models.Clue, len(doc.Clues))
	for i, clue := range doc.Clues {
		clues[i] = models.Clue{
			ID:      clue.ID,
			Title:   clue.Title,
			Type:    models.ClueType(clue.Type),
			Content: clue.Content,
			Hint:    clue.Hint,
		}
	}
	return &models.CaseDefinition{
		ID:         doc.ID,
		Title:      doc.Title,
		Difficulty: doc.Difficulty,
		Category:   doc.Category,
		Clues:      clues,
		Rubric: models.SolutionRubric{
			Diagnosis: doc.Rubric.Diagnosis,
			Keywords:  doc.Rubric.Keywords,
			RootCause: doc.Rubric.RootCause,
		},
	}
}

// checkConsistency enforces the rules the schema cannot express: clue ids are
// unique within a case and keywords are non-blank after trimming.
func checkConsistency(caseDef *models.CaseDefinition) error {
	seen := make(map[string]struct{}, len(caseDef.Clues))
	for _, clue := range caseDef.Clues {
		if _, ok := seen[clue.ID]; ok {
			return errors.Wrap(ErrInvalidCase, "duplicate clue id",
				slog.String("case_id", caseDef.ID),
				slog.String("clue_id", clue.ID))
		}
		seen[clue.ID] = struct{}{}
	}
	for _, keyword := range caseDef.Rubric.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return errors.Wrap(ErrInvalidCase, "blank rubric keyword",
				slog.String("case_id", caseDef.ID))
		}
	}
	return nil
}
