// Package repository loads the pre-collected contest datasets.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"

	"github.com/klauspost/compress/zstd"

	model "github.com/okian/ahcview/internal/domain/model"
)

// Layout of the data directory (or bucket prefix).
const (
	CatalogKey     = "contest_lists.json"
	ResultsDir     = "results"
	ExtendedDir    = "extended"
	CompressedExt  = ".zst"
	datasetCatalog = "catalog"
)

// Store provides read-only access to the datasets. Every load is idempotent
// and safe to call from concurrent requests.
type Store interface {
	// Catalog returns the configured contest lists.
	Catalog(ctx context.Context) (model.ContestLists, error)
	// Standings returns the original standings of a contest.
	// Returns ErrNotFound if the contest has no standings file.
	Standings(ctx context.Context, id model.ContestID) ([]model.StandingsRow, error)
	// Extended returns the extension-window standings of a contest.
	// Returns ErrNotFound if the contest has no extended file.
	Extended(ctx context.Context, id model.ContestID) ([]model.ExtendedRow, error)
}

var validID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// StandingsKey returns the relative key of a contest's standings file.
func StandingsKey(id model.ContestID) (string, error) {
	return datasetKey(ResultsDir, id)
}

// ExtendedKey returns the relative key of a contest's extended file.
func ExtendedKey(id model.ContestID) (string, error) {
	return datasetKey(ExtendedDir, id)
}

func datasetKey(dir string, id model.ContestID) (string, error) {
	if !validID.MatchString(string(id)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return path.Join(dir, string(id)+".json"), nil
}

// readFunc fetches one raw object. It must return ErrNotFound for absent keys.
type readFunc func(ctx context.Context, key string) ([]byte, error)

// blobStore implements Store over any key/value blob source. A key that is
// missing in plain form is retried with the compressed extension.
type blobStore struct {
	read readFunc
}

// zstd decoders are safe for concurrent DecodeAll calls.
var decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

func (b blobStore) load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.read(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	compressed, zerr := b.read(ctx, key+CompressedExt)
	if zerr != nil {
		if errors.Is(zerr, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, zerr
	}
	data, err = decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key+CompressedExt, err)
	}
	return data, nil
}

func (b blobStore) Catalog(ctx context.Context) (model.ContestLists, error) {
	var lists model.ContestLists
	data, err := b.load(ctx, CatalogKey)
	if err != nil {
		return lists, err
	}
	if err := decode(CatalogKey, data, &lists); err != nil {
		return model.ContestLists{}, err
	}
	return lists, nil
}

func (b blobStore) Standings(ctx context.Context, id model.ContestID) ([]model.StandingsRow, error) {
	key, err := StandingsKey(id)
	if err != nil {
		return nil, err
	}
	data, err := b.load(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Rows []model.StandingsRow `json:"rows"`
	}
	if err := decode(key, data, &doc); err != nil {
		return nil, err
	}
	return doc.Rows, nil
}

func (b blobStore) Extended(ctx context.Context, id model.ContestID) ([]model.ExtendedRow, error) {
	key, err := ExtendedKey(id)
	if err != nil {
		return nil, err
	}
	data, err := b.load(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Rows []model.ExtendedRow `json:"rows"`
	}
	if err := decode(key, data, &doc); err != nil {
		return nil, err
	}
	return doc.Rows, nil
}

func decode(key string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}
