package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-questionnaire/pkg/importer"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

func newImportCommand(a *app) *cobra.Command {
	var output string
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Convert a qq-docs export into a questionnaire schema",
		Long: `import maps a qq-docs style document (pages or sections of questions) onto
a questionnaire schema and validates it. The input may be JSON or YAML; "-"
or no argument reads stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			raw, err := readInput(cmd.InOrStdin(), name)
			if err != nil {
				return err
			}
			doc, err := schema.NewDocument(schema.SourceFromBytes(name, raw), raw)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			s, err := importer.NewParser().Parse(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			a.logger.Debug("import: mapped", "schema", s.ID, "sections", len(s.Sections), "fields", countFields(s))
			return writeSchema(cmd.OutOrStdout(), output, s, asYAML)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the schema to a file instead of stdout")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Emit YAML instead of JSON")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [schema...]",
		Short: "Load and validate schema documents",
		Long: `check parses each schema (file or URL) and reports its structure. With no
arguments it checks the configured schema, or the built-in sample.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{a.cfg.Schema.Path}
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, location := range args {
				label := location
				if label == "" {
					label = "(sample)"
				}
				s, err := loadSchema(cmd.Context(), location)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", label, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s, %d sections, %d fields\n", label, s.ID, len(s.Sections), countFields(s))
			}
			if failed > 0 {
				return fmt.Errorf("check: %d of %d schemas invalid", failed, len(args))
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}

func writeSchema(stdout io.Writer, path string, s model.Schema, asYAML bool) error {
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
