package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
	"github.com/goliatone/go-questionnaire/pkg/renderers/jsonview"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

type renderFlags struct {
	section    int
	format     string
	answers    string
	output     string
	stylesheet string
	partial    bool
	showErrors bool
}

func newRenderCommand(a *app) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one section as static HTML or as the JSON view model",
		Long: `render builds the view of a section, optionally prefilled from a JSON
answers file, and writes it with the selected renderer. --errors marks every
visible field as touched so validation messages appear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRender(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&f.section, "section", 1, "Section number, starting at 1")
	flags.StringVarP(&f.format, "format", "f", "html", "Renderer: html or json")
	flags.StringVar(&f.answers, "answers", "", "JSON file of answers to prefill")
	flags.StringVarP(&f.output, "output", "o", "", "Write to a file instead of stdout")
	flags.StringVar(&f.stylesheet, "stylesheet", "", "Link this stylesheet URL instead of inlining the default")
	flags.BoolVar(&f.partial, "partial", false, "Render only the form body")
	flags.BoolVar(&f.showErrors, "errors", false, "Show validation messages for visible fields")
	return cmd
}

func (a *app) runRender(ctx context.Context, stdout io.Writer, f renderFlags) error {
	s, err := loadSchema(ctx, a.cfg.Schema.Path)
	if err != nil {
		return err
	}
	if f.section < 1 || f.section > len(s.Sections) {
		return fmt.Errorf("render: section %d out of range 1..%d", f.section, len(s.Sections))
	}

	store := draft.NewStore(draft.NewMemoryBackend(), draft.WithLogger(a.logger))
	if f.answers != "" {
		answers, err := readAnswers(f.answers)
		if err != nil {
			return err
		}
		store.Save(ctx, s.ID, answers)
	}
	sess := session.New(ctx, s, session.WithDraftStore(store), session.WithLogger(a.logger))
	index := sess.SetIndex(f.section - 1)
	if f.showErrors {
		for _, field := range s.Sections[index].Fields {
			sess.MarkTouched(field.ID)
		}
	}

	htmlRenderer, err := html.New()
	if err != nil {
		return err
	}
	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(jsonview.New())

	view := render.Build(sess.Snapshot(), render.WithEvaluator(sess.Evaluator()))
	out, _, err := registry.Render(ctx, f.format, view, render.RenderOptions{
		Partial:       f.partial,
		StylesheetURL: f.stylesheet,
	})
	if err != nil {
		return err
	}
	if f.output == "" {
		_, err = stdout.Write(out)
		return err
	}
	return os.WriteFile(f.output, out, 0o644)
}

func readAnswers(path string) (model.Answers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers model.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers %s: %w", path, err)
	}
	return answers, nil
}
