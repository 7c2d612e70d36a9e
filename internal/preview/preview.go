// Package preview serves a blog build locally and rebuilds it, drafts
// included, whenever the content directory changes.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// DefaultDebounce is the quiet period after the last file event before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a preview server.
type Options struct {
	Host string
	Port int
	// OutputDir receives the preview build. Empty means a temporary
	// directory removed on shutdown.
	OutputDir string
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Server is a local preview server.
type Server struct {
	cfg       *config.Config
	opts      Options
	logger    *slog.Logger
	outputDir string
	tempDir   bool
	recorder  *metrics.PrometheusRecorder
	generator *site.Generator
	status    buildStatus
	ready     chan struct{}
	addr      string
}

// New prepares a preview server for cfg. The configuration is copied and
// drafts are always included.
func New(cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	absContent, err := filepath.Abs(cfg.Content.Directory)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve content directory").Build()
	}
	if st, statErr := os.Stat(absContent); statErr != nil || !st.IsDir() {
		return nil, ferrors.FileSystemError("content directory not found or not a directory").
			WithContext(logfields.KeyPath, absContent).
			WithCause(statErr).
			Build()
	}

	previewCfg := *cfg
	previewCfg.Content.Directory = absContent
	previewCfg.Build.IncludeDrafts = true

	s := &Server{
		cfg:       &previewCfg,
		opts:      opts,
		logger:    logger,
		outputDir: opts.OutputDir,
		recorder:  metrics.NewPrometheusRecorder(nil),
		ready:     make(chan struct{}),
	}
	if s.outputDir == "" {
		dir, err := os.MkdirTemp("", "blogbuilder-preview-*")
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create preview directory").Build()
		}
		s.outputDir = filepath.Join(dir, "site")
		s.tempDir = true
	}
	previewCfg.Output.Directory = s.outputDir
	s.generator = site.NewGenerator(s.cfg, s.outputDir).
		WithRecorder(s.recorder).
		WithLogger(logger)
	return s, nil
}

// OutputDir returns the directory the preview is built into.
func (s *Server) OutputDir() string { return s.outputDir }

// Ready is closed once the server listens.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the listen address. Valid after Ready is closed.
func (s *Server) Addr() string { return s.addr }

// Status returns the state of the latest build.
func (s *Server) Status() Status { return s.status.snapshot() }

// Rebuild runs one preview build and records its outcome. A failed build
// leaves the previous preview in place.
func (s *Server) Rebuild(ctx context.Context) error {
	report, err := s.generator.Generate(ctx)
	if err != nil {
		s.status.setError(err, time.Now())
		return err
	}
	s.status.setSuccess(report.ManifestDigest, time.Now())
	s.logger.Info("Preview rebuilt", slog.String("summary", report.Summary()))
	return nil
}

// Handler serves the built site, the build status at /_status and metrics
// at /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.recorder.HTTPHandler())
	mux.HandleFunc("/_status", s.handleStatus)
	files := http.FileServer(http.Dir(s.outputDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		st := s.status.snapshot()
		if !st.HasGoodBuild {
			msg := "no successful build yet"
			if st.Error != "" {
				msg = "build failed: " + st.Error
			}
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}
		if st.Error != "" {
			w.Header().Set("X-Build-Error", strconv.Quote(st.Error))
		}
		files.ServeHTTP(w, r)
	})
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.status.snapshot()); err != nil {
		s.logger.Warn("Failed to write status", logfields.Error(err))
	}
}

// Run builds once, serves the output and rebuilds on content changes until
// ctx is canceled. A failing initial build does not stop the server.
func (s *Server) Run(ctx context.Context) error {
	defer s.cleanup()

	if err := s.Rebuild(ctx); err != nil {
		s.logger.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := newWatcher(s.cfg.Content.Directory, s.logger)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch content directory").Build()
	}
	defer func() { _ = watcher.Close() }()

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "listen").WithContext("addr", addr).Build()
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.addr = ln.Addr().String()
	close(s.ready)
	s.logger.Info("Preview server listening", "url", "http://"+s.addr+"/", logfields.Path(s.outputDir))

	fire, trigger, stopDebounce := newDebouncer(s.opts.Debounce)
	defer stopDebounce()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := srv.Shutdown(shutdownCtx)
			cancel()
			if err != nil {
				s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
			}
			return nil
		case err, ok := <-serveErr:
			if ok {
				return ferrors.WrapError(err, ferrors.CategoryInternal, "preview server stopped").Build()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if handleEvent(watcher, ev, s.logger) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		case <-fire:
			// Rebuilds run on this goroutine; events queue in the watcher
			// meanwhile and coalesce into the next debounce window.
			s.logger.Info("Change detected; rebuilding preview")
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (s *Server) cleanup() {
	if !s.tempDir {
		return
	}
	dir := filepath.Dir(s.outputDir)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("Failed to remove preview directory", logfields.Path(dir), logfields.Error(err))
		return
	}
	s.logger.Debug("Removed preview directory", logfields.Path(dir))
}
