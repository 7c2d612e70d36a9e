package site

import "context"

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageLoadDocuments   StageName = "load_documents"
	StageAssembleCorpus  StageName = "assemble_corpus"
	StageBuildViews      StageName = "build_views"
	StageRenderDocuments StageName = "render_documents"
	StageWriteArtifacts  StageName = "write_artifacts"
	StageWriteManifest   StageName = "write_manifest"
	StagePublish         StageName = "publish"
)

// Stage is one step of the pipeline operating on shared build state.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline accumulates stage definitions in execution order.
type Pipeline struct {
	stages []StageDef
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{} }

// Add appends a stage.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.stages = append(p.stages, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns the stage list.
func (p *Pipeline) Build() []StageDef { return p.stages }
