// Package metrics provides build metrics for blogbuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so recording never needs a nil check:
//
//	gen := site.NewGenerator(cfg, outputDir) // records nothing
//	gen = gen.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The Prometheus implementation can be scraped over HTTP (preview server) or
// written to a node-exporter textfile after a one-shot build.
package metrics
