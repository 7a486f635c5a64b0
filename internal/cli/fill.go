package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/renderers/tui"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/submit"
)

// ErrNoTerminal is returned by fill when stdin is not a terminal.
var ErrNoTerminal = errors.New("fill: an interactive terminal is required")

func newFillCommand(a *app) *cobra.Command {
	var submitURL string
	var noConfirm bool
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the questionnaire interactively in the terminal",
		Long: `fill asks every visible question section by section, saves a draft after
each answer and submits to the collector after the last section. An
interrupted run resumes from the saved draft.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return ErrNoTerminal
			}
			if submitURL != "" {
				a.cfg.Submit.BaseURL = submitURL
			}
			return a.runFill(cmd.Context(), !noConfirm)
		},
	}
	cmd.Flags().StringVar(&submitURL, "submit-url", "", "Collector base URL (default "+config.DefaultCollectorURL+")")
	cmd.Flags().BoolVar(&noConfirm, "yes", false, "Submit without asking for confirmation")
	return cmd
}

func (a *app) runFill(ctx context.Context, confirm bool) error {
	s, err := loadSchema(ctx, a.cfg.Schema.Path)
	if err != nil {
		return err
	}

	store, closeDrafts, err := a.openDrafts(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDrafts(); err != nil {
			a.logger.Warn("drafts: close", "error", err)
		}
	}()
	saver := draft.NewAsyncSaver(store, draft.WithWriteTimeout(a.cfg.Submit.Timeout))
	defer saver.Close()

	base := a.cfg.Submit.BaseURL
	if base == "" {
		base = config.DefaultCollectorURL
	}
	ctrl := navigation.New(
		session.New(ctx, s, session.WithDrafts(saver), session.WithLogger(a.logger)),
		navigation.WithSubmitter(submit.New(base,
			submit.WithTimeout(a.cfg.Submit.Timeout),
			submit.WithLogger(a.logger),
		)),
		navigation.WithSubmitTimeout(a.cfg.Submit.Timeout),
		navigation.WithLogger(a.logger),
	)

	filler := tui.New(tui.WithConfirmSubmit(confirm), tui.WithLogger(a.logger))
	result, err := filler.Fill(ctx, ctrl)
	if errors.Is(err, tui.ErrAborted) {
		ctrl.Save(context.WithoutCancel(ctx))
		return nil
	}
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if result.Receipt != nil {
		a.logger.Info("fill: submitted", "schema", s.ID, "id", result.Receipt.ID, "path", result.Receipt.Path)
	}
	return nil
}
