package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/render"
)

// Generator builds the site described by a configuration.
type Generator struct {
	config    *config.Config
	outputDir string
	renderer  render.Renderer
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewGenerator returns a generator writing to outputDir. The configuration
// must already be validated.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		config:    cfg,
		outputDir: outputDir,
		renderer:  render.NewGoldmark(),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Config returns the generator's configuration.
func (g *Generator) Config() *config.Config { return g.config }

// OutputDir returns the directory the site is published to.
func (g *Generator) OutputDir() string { return g.outputDir }

// WithRecorder sets the metrics recorder; nil restores the no-op recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// WithRenderer replaces the Markdown renderer.
func (g *Generator) WithRenderer(r render.Renderer) *Generator {
	g.renderer = r
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	g.logger = l
	return g
}

// Generate runs the full pipeline and publishes the result. The report is
// returned even when the build fails so callers can record it.
func (g *Generator) Generate(ctx context.Context) (*BuildReport, error) {
	stages := NewPipeline().
		Add(StageLoadDocuments, stageLoadDocuments).
		Add(StageAssembleCorpus, stageAssembleCorpus).
		Add(StageBuildViews, stageBuildViews).
		Add(StageRenderDocuments, stageRenderDocuments).
		Add(StageWriteArtifacts, stageWriteArtifacts).
		Add(StageWriteManifest, stageWriteManifest).
		Add(StagePublish, stagePublish).
		Build()
	return g.run(ctx, stages)
}

// Check loads and assembles the corpus and plans every view without writing
// anything.
func (g *Generator) Check(ctx context.Context) (*BuildReport, error) {
	stages := NewPipeline().
		Add(StageLoadDocuments, stageLoadDocuments).
		Add(StageAssembleCorpus, stageAssembleCorpus).
		Add(StageBuildViews, stageBuildViews).
		Build()
	return g.run(ctx, stages)
}

func (g *Generator) run(ctx context.Context, stages []StageDef) (*BuildReport, error) {
	report := newBuildReport(g.newID(), g.outputDir, g.now())
	bs := newBuildState(g, report)
	log := g.logger.With(logfields.BuildID(report.ID))
	log.Info("Starting blog build",
		slog.String("content", g.config.Content.Directory),
		slog.String("output", g.outputDir),
		slog.Bool("include_drafts", g.config.Build.IncludeDrafts))

	err := runStages(ctx, bs, stages)
	if err != nil {
		report.Errors = append(report.Errors, err)
		bs.abortStaging()
	}
	report.finish(g.now(), g.recorder)

	if err != nil {
		log.Error("Blog build failed", slog.String("outcome", string(report.Outcome)), logfields.Error(err))
		return report, err
	}
	log.Info("Blog build completed",
		slog.String("summary", report.Summary()),
		slog.String("manifest_digest", report.ManifestDigest))
	return report, nil
}
