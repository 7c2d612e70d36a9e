package site

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/util/sets"
)

// checkOutputDir rejects an output directory that would replace the content
// tree on publish or be read back as content by the next build.
func checkOutputDir(contentDir, outputDir string) error {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").Build()
	}
	src, err := filepath.Abs(contentDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve content directory").Build()
	}
	if within(out, src) {
		return ferrors.ConfigError("output directory must not contain the content directory").
			WithField("output.directory").
			WithContext("value", outputDir).
			Build()
	}
	if within(src, out) {
		return ferrors.ConfigError("output directory must not lie inside the content directory").
			WithField("output.directory").
			WithContext("value", outputDir).
			Build()
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// beginStaging creates a sibling staging directory so the published output
// is never observed half-written.
func (bs *BuildState) beginStaging() error {
	out := filepath.Clean(bs.Generator.outputDir)
	parent := filepath.Dir(out)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output parent").
			WithContext(logfields.KeyPath, parent).Build()
	}
	dir, err := os.MkdirTemp(parent, filepath.Base(out)+".staging-*")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create staging directory").
			WithContext(logfields.KeyPath, parent).Build()
	}
	if err := os.Chmod(dir, 0o755); err != nil {
		_ = os.RemoveAll(dir)
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "chmod staging directory").
			WithContext(logfields.KeyPath, dir).Build()
	}
	bs.stageDir = dir
	bs.Generator.logger.Debug("Initialized staging directory", "staging", dir, "final", out)
	return nil
}

// writeStaged writes one file below the staging directory.
func (bs *BuildState) writeStaged(rel string, data []byte) error {
	if bs.stageDir == "" {
		return ferrors.InternalError("no staging directory initialized").Build()
	}
	path := filepath.Join(bs.stageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create artifact directory").
			WithContext(logfields.KeyPath, rel).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write artifact").
			WithContext(logfields.KeyPath, rel).Build()
	}
	return nil
}

// preserveUnmanaged copies files of the current output that no build
// generated into the staging directory. Files listed in the previous
// manifest are generated output and are dropped.
func (bs *BuildState) preserveUnmanaged() error {
	out := bs.Generator.outputDir
	if _, err := os.Stat(out); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	produced := sets.New(manifest.FileName)
	for _, a := range bs.Artifacts {
		produced.Add(a.Path)
	}
	if prev, err := readManifest(out); err == nil && prev != nil {
		for _, a := range prev.Outputs.Artifacts {
			produced.Add(a.Path)
		}
	}

	kept := 0
	err := filepath.WalkDir(out, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(out, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if produced.Has(rel) {
			return nil
		}
		if err := copyFile(path, filepath.Join(bs.stageDir, filepath.FromSlash(rel))); err != nil {
			return err
		}
		kept++
		return nil
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "preserve existing output").
			WithContext(logfields.KeyPath, out).Build()
	}
	if kept > 0 {
		bs.Generator.logger.Info("Preserved unmanaged output files", logfields.Count(kept))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, in); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// finalizeStaging promotes the staging directory to the output location:
// the current output moves to <output>.prev, staging is renamed into place
// and the backup is removed. A failed promotion restores the backup.
func (bs *BuildState) finalizeStaging() error {
	log := bs.Generator.logger
	if bs.stageDir == "" {
		return ferrors.InternalError("no staging directory initialized").Build()
	}
	out := filepath.Clean(bs.Generator.outputDir)
	prev := out + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove stale backup").
			WithContext(logfields.KeyPath, prev).Build()
	}

	backedUp := false
	if _, err := os.Stat(out); err == nil {
		if err := os.Rename(out, prev); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "back up existing output").
				WithContext(logfields.KeyPath, out).Build()
		}
		backedUp = true
	}
	if err := os.Rename(bs.stageDir, out); err != nil {
		if backedUp {
			if rerr := os.Rename(prev, out); rerr != nil {
				log.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "promote staging directory").
			WithContext(logfields.KeyPath, out).Build()
	}
	bs.stageDir = ""
	if backedUp {
		if err := os.RemoveAll(prev); err != nil {
			log.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	log.Info("Published site", slog.String("output", out))
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// temporary directories are left behind.
func (bs *BuildState) abortStaging() {
	if bs.stageDir == "" {
		return
	}
	dir := bs.stageDir
	bs.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		bs.Generator.logger.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
		return
	}
	bs.Generator.logger.Debug("Removed staging directory after abort", "staging", dir)
}
