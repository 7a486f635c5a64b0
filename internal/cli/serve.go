package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-questionnaire/pkg/collector"
	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/submit"
	"github.com/goliatone/go-questionnaire/pkg/webui"
)

const readHeaderTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr, dir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the questionnaire web UI with the collector mounted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if dir != "" {
				a.cfg.Collector.SubmissionsDir = dir
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&dir, "submissions-dir", "", "Directory submissions are written to")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
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

	options := []webui.Option{
		webui.WithDrafts(saver),
		webui.WithCollector(a.newCollector()),
		webui.WithSubmitTimeout(a.cfg.Submit.Timeout),
		webui.WithSessionTTL(a.cfg.Server.SessionTTL),
		webui.WithMaxSessions(a.cfg.Server.MaxSessions),
		webui.WithLogger(a.logger),
	}
	if base := a.cfg.Submit.BaseURL; base != "" {
		options = append(options, webui.WithSubmitter(submit.New(base,
			submit.WithTimeout(a.cfg.Submit.Timeout),
			submit.WithLogger(a.logger),
		)))
	}
	ui, err := webui.New(s, options...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           ui.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	a.logger.Info("serve: questionnaire ready", "schema", s.ID, "sections", len(s.Sections))
	return runServer(ctx, srv, a.cfg.Server.ShutdownGrace, a.logger)
}

func newCollectCommand(a *app) *cobra.Command {
	var addr, dir, static string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run the standalone submission collector",
		Long: `collect accepts questionnaire payloads on POST /api/submit and writes each
one to the submissions directory as {id}-{timestamp}.json. With --static it
also serves a directory of files on the same origin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Collector.Addr = addr
			}
			if dir != "" {
				a.cfg.Collector.SubmissionsDir = dir
			}
			if static != "" {
				a.cfg.Collector.StaticRoot = static
			}
			srv := &http.Server{
				Addr:              a.cfg.Collector.Addr,
				Handler:           a.newCollector().Handler(),
				ReadHeaderTimeout: readHeaderTimeout,
			}
			return runServer(cmd.Context(), srv, a.cfg.Server.ShutdownGrace, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :3000)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory submissions are written to")
	cmd.Flags().StringVar(&static, "static", "", "Directory of static files to serve")
	return cmd
}

func (a *app) newCollector() *collector.Server {
	cfg := a.cfg.Collector
	options := []collector.Option{
		collector.WithSubmissionsDir(cfg.SubmissionsDir),
		collector.WithLogger(a.logger),
	}
	if cfg.RateLimit > 0 {
		options = append(options, collector.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.StaticRoot != "" {
		options = append(options, collector.WithStaticDir(cfg.StaticRoot))
	}
	return collector.New(options...)
}

// runServer serves until ctx is cancelled, then shuts down within grace.
func runServer(ctx context.Context, srv *http.Server, grace time.Duration, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		logger.Info("http: shutting down", "addr", srv.Addr)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
