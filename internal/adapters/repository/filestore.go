package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	model "github.com/okian/ahcview/internal/domain/model"
)

// FileStore reads and writes datasets under a local directory.
type FileStore struct {
	blobStore
	root     string
	compress bool
}

// FileOption applies a configuration option to the FileStore.
type FileOption func(*FileStore)

// WithCompression makes the writers emit zstd-compressed ".zst" files.
func WithCompression(enabled bool) FileOption {
	return func(s *FileStore) {
		s.compress = enabled
	}
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{root: dir}
	for _, opt := range opts {
		opt(s)
	}
	s.read = s.readFile
	return s
}

// Root returns the data directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) readFile(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// HasStandings reports whether a standings file (plain or compressed) exists.
func (s *FileStore) HasStandings(id model.ContestID) bool {
	key, err := StandingsKey(id)
	if err != nil {
		return false
	}
	for _, k := range []string{key, key + CompressedExt} {
		if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(k))); err == nil {
			return true
		}
	}
	return false
}

// SaveCatalog writes the catalog file. It is always stored uncompressed so it
// stays hand-editable.
func (s *FileStore) SaveCatalog(ctx context.Context, lists model.ContestLists) error {
	return s.writeJSON(ctx, CatalogKey, lists, false)
}

// SaveStandings writes a contest's standings file.
func (s *FileStore) SaveStandings(ctx context.Context, doc model.StandingsFile) error {
	key, err := StandingsKey(doc.ContestID)
	if err != nil {
		return err
	}
	if doc.Rows == nil {
		doc.Rows = []model.StandingsRow{}
	}
	return s.writeJSON(ctx, key, doc, s.compress)
}

// SaveExtended writes a contest's extended file.
func (s *FileStore) SaveExtended(ctx context.Context, doc model.ExtendedFile) error {
	key, err := ExtendedKey(doc.ContestID)
	if err != nil {
		return err
	}
	if doc.Rows == nil {
		doc.Rows = []model.ExtendedRow{}
	}
	return s.writeJSON(ctx, key, doc, s.compress)
}

func (s *FileStore) writeJSON(ctx context.Context, key string, v any, compress bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	data := buf.Bytes()
	if compress {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		data = encoder.EncodeAll(data, nil)
		_ = encoder.Close()
		key += CompressedExt
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	// write to a temp file first so readers never observe a partial file
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}
