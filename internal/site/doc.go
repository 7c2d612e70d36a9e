// Package site runs the blog generation pipeline.
//
// A Generator executes named stages in order:
//
//	load_documents -> assemble_corpus -> build_views -> render_documents
//	  -> write_artifacts -> write_manifest -> publish
//
// build_views runs the four corpus consumers (tag index, listing pages,
// search payload, feed) concurrently; none reads another's result. All
// artifacts are written to a sibling staging directory that replaces the
// output directory only after every stage succeeded, so a failed or
// canceled build never leaves a partial site behind.
//
// Artifacts carry no wall-clock data. Building an unchanged corpus twice
// yields byte-identical files and the same manifest digest.
package site
