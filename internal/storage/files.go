// Package storage is the media file manager: it persists received image
// files under the configured root and translates between the relative paths
// stored in the database and absolute on-disk paths.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// moviesDir is the single subdirectory stored paths live under,
// i.e. "movies/<opaque-name>.<ext>".
const moviesDir = "movies"

// extByMIME whitelists the accepted upload types. Anything else is rejected
// at the upload boundary and never reaches the service layer.
var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AllowedMIME reports whether the declared content type is accepted.
func AllowedMIME(mime string) bool {
	_, ok := extByMIME[mime]
	return ok
}

// StoredFile describes one file already written to storage.
type StoredFile struct {
	RelPath string `json:"rel_path"`
	AbsPath string `json:"-"`
	MIME    string `json:"mime"`
	Size    int64  `json:"size"`
}

type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager resolves root to an absolute path and ensures the movies
// subdirectory exists.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, moviesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Manager{root: abs, logger: logger}, nil
}

// Store copies an uploaded part to disk under an opaque server-assigned name.
// The original filename is never trusted or reused; the extension comes from
// the declared MIME type.
func (m *Manager) Store(fh *multipart.FileHeader) (StoredFile, error) {
	mime := fh.Header.Get("Content-Type")
	ext, ok := extByMIME[mime]
	if !ok {
		return StoredFile{}, fmt.Errorf("unsupported content type %q", mime)
	}

	rel := filepath.Join(moviesDir, uuid.New().String()+ext)
	abs := filepath.Join(m.root, rel)

	src, err := fh.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(abs)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create %s: %w", rel, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(abs)
		return StoredFile{}, fmt.Errorf("write %s: %w", rel, err)
	}

	return StoredFile{RelPath: rel, AbsPath: abs, MIME: mime, Size: n}, nil
}

// RelativePath strips everything up to and including the storage root,
// returning the path as stored in the database.
func (m *Manager) RelativePath(abs string) string {
	rel, err := filepath.Rel(m.root, abs)
	if err != nil {
		return abs
	}
	return rel
}

// AbsolutePath joins a stored relative path back onto the storage root.
func (m *Manager) AbsolutePath(rel string) string {
	return filepath.Join(m.root, rel)
}

// Delete removes one stored file. Best-effort: a missing file is fine and
// I/O failures are logged, never propagated — cleanup must not decide the
// outcome of a business operation.
func (m *Manager) Delete(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(m.AbsolutePath(rel)); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to delete stored file", "path", rel, "error", err)
	}
}

// DeleteMany removes a batch of stored files, best-effort per file.
func (m *Manager) DeleteMany(rels []string) {
	for _, rel := range rels {
		m.Delete(rel)
	}
}
