// Package discovery finds media files for an import pass. It walks a root in
// lexical order, filters by configured extensions, and transparently expands
// zip archives into a temporary staging namespace that is cleaned up after
// the pass.
package discovery

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/logging"
	"photoflow/internal/services"
)

// Item is one discovered media file.
type Item struct {
	Path string
	Kind catalog.MediaKind
}

// Scanner walks import roots and classifies files by extension.
type Scanner struct {
	imageExts      map[string]struct{}
	videoExts      map[string]struct{}
	expandArchives bool
	stagingDir     string
	logger         *slog.Logger
}

// NewScanner builds a scanner from configuration.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		imageExts:      extensionSet(cfg.Import.ImageExtensions),
		videoExts:      extensionSet(cfg.Import.VideoExtensions),
		expandArchives: cfg.Import.ExpandArchives,
		stagingDir:     cfg.Paths.StagingDir,
		logger:         logger,
	}
}

// KindForPath classifies a path by extension. The second return is false for
// non-media files.
func (s *Scanner) KindForPath(path string) (catalog.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := s.imageExts[ext]; ok {
		return catalog.KindImage, true
	}
	if _, ok := s.videoExts[ext]; ok {
		return catalog.KindVideo, true
	}
	return "", false
}

// Scan walks root and returns discovered media items in lexical path order.
// Zip archives encountered during the walk are expanded into a temporary
// directory under the staging area; the returned cleanup func removes all
// expansion directories and must be called once the pass is done with the
// item paths. A missing root is a precondition failure for the whole run.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Item, func(), error) {
	cleanup := func() {}

	info, err := os.Stat(root)
	if err != nil {
		return nil, cleanup, services.Wrap(services.ErrPrecondition, "discovery", "scan",
			fmt.Sprintf("import root %s unavailable", root), err)
	}
	if !info.IsDir() {
		return nil, cleanup, services.Wrap(services.ErrPrecondition, "discovery", "scan",
			fmt.Sprintf("import root %s is not a directory", root), nil)
	}

	var items []Item
	var expansionDirs []string
	cleanup = func() {
		for _, dir := range expansionDirs {
			if err := os.RemoveAll(dir); err != nil {
				s.logger.Warn("remove expansion dir", logging.String("dir", dir), logging.Error(err))
			}
		}
	}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		if kind, ok := s.KindForPath(path); ok {
			items = append(items, Item{Path: path, Kind: kind})
			return nil
		}
		if s.expandArchives && strings.EqualFold(filepath.Ext(path), ".zip") {
			expanded, dir, err := s.expandZip(ctx, path)
			if err != nil {
				s.logger.Warn("expand archive", logging.String("archive", path), logging.Error(err))
				return nil
			}
			if dir != "" {
				expansionDirs = append(expansionDirs, dir)
			}
			items = append(items, expanded...)
		}
		return nil
	})
	if walkErr != nil {
		cleanup()
		return nil, func() {}, services.Wrap(services.ErrTransient, "discovery", "scan", "walk import root", walkErr)
	}
	return items, cleanup, nil
}

// expandZip extracts the archive's media entries into a fresh temp directory
// under the staging area. Entry names are NFC-normalized so files zipped on
// macOS match the extension filter and dedupe consistently with local files.
func (s *Scanner) expandZip(ctx context.Context, archivePath string) ([]Item, string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, "", fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	dir, err := os.MkdirTemp(s.stagingDir, "expand-")
	if err != nil {
		return nil, "", fmt.Errorf("create expansion dir: %w", err)
	}

	var items []Item
	for _, entry := range reader.File {
		if ctxErr := ctx.Err(); ctxErr != nil {
			os.RemoveAll(dir)
			return nil, "", ctxErr
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		name := norm.NFC.String(entry.Name)
		if strings.Contains(name, "..") {
			continue
		}
		base := filepath.Base(name)
		if strings.HasPrefix(base, ".") {
			continue
		}
		kind, ok := s.KindForPath(base)
		if !ok {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := extractEntry(entry, target); err != nil {
			s.logger.Warn("extract archive entry",
				logging.String("archive", archivePath),
				logging.String("entry", entry.Name),
				logging.Error(err))
			continue
		}
		items = append(items, Item{Path: target, Kind: kind})
	}
	if len(items) == 0 {
		os.RemoveAll(dir)
		return nil, "", nil
	}
	return items, dir, nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	// Preserve the archived timestamp so mtime-fallback capture times make sense.
	if modified := entry.Modified; !modified.IsZero() {
		_ = os.Chtimes(target, modified, modified)
	}
	return nil
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
