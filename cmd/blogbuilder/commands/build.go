package commands

import (
	"cmp"
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory for the generated site (overrides output.directory)"`
	Drafts      bool   `help:"Include draft documents"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile (overrides metrics.textfile)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.Drafts {
		cfg.Build.IncludeDrafts = true
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunBuild(ctx, g, cfg, ResolveOutputDir(b.Output, cfg), cmp.Or(b.MetricsFile, cfg.Metrics.Textfile))
}

// RunBuild generates the site, then records history and metrics. Both are
// written for failed builds too.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, outputDir, metricsFile string) error {
	out := g.out()
	_, _ = fmt.Fprintln(out, "Starting blogbuilder build")

	gen := site.NewGenerator(cfg, outputDir).WithLogger(g.Logger)
	var recorder *metrics.PrometheusRecorder
	if metricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		gen.WithRecorder(recorder)
	}

	report, buildErr := gen.Generate(ctx)

	if err := recordHistory(ctx, cfg, report); err != nil {
		g.Logger.Warn("Failed to record build history", logfields.Error(err))
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			g.Logger.Warn("Failed to write metrics textfile", logfields.Path(metricsFile), logfields.Error(err))
		}
	}

	if buildErr != nil {
		_, _ = fmt.Fprintln(out, "Build failed")
		return buildErr
	}
	_, _ = fmt.Fprintf(out, "Built %d documents (%d drafts excluded, %d tags) into %s\n",
		report.Documents, report.Drafts, report.Tags, outputDir)
	_, _ = fmt.Fprintf(out, "Changes: %d added, %d modified, %d removed\n",
		len(report.Changes.Added), len(report.Changes.Modified), len(report.Changes.Removed))
	_, _ = fmt.Fprintf(out, "Manifest digest: %s\n", report.ManifestDigest)
	return nil
}

func recordHistory(ctx context.Context, cfg *config.Config, report *site.BuildReport) error {
	if cfg.State.Database == "" || report == nil {
		return nil
	}
	store, err := history.NewSQLiteStore(cfg.State.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	// A canceled build is still worth recording.
	return store.Record(context.WithoutCancel(ctx), report.HistoryRecord())
}
