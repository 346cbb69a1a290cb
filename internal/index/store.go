package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/onionsearch/internal/model"
)

// ArtifactStore persists artifacts under a fixed name per model.
type ArtifactStore interface {
	// Save replaces the stored artifact of a's model.
	Save(ctx context.Context, a Artifact) error

	// Load returns the stored artifact of model m, or ErrIndexNotFound.
	Load(ctx context.Context, m model.Model) (Artifact, error)
}

// FileStore keeps each artifact as a JSON file in one directory:
// boolean_index.json, tfidf_index.json and bm25_index.json.
// Writes go to a temporary file that is renamed into place, so a reader
// sees either the previous artifact or the new one.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on
// the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the artifacts.
func (s *FileStore) Dir() string {
	return s.dir
}

// FileName returns the file name used for model m.
func FileName(m model.Model) string {
	return m.String() + "_index.json"
}

// Path returns the full path of the artifact for model m.
func (s *FileStore) Path(m model.Model) string {
	return filepath.Join(s.dir, FileName(m))
}

// Save implements ArtifactStore.
func (s *FileStore) Save(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	name := FileName(a.Model())
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpPath)
	}()

	if err := json.NewEncoder(tmp).Encode(a); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode %s index: %w", a.Model(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s index: %w", a.Model(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s index: %w", a.Model(), err)
	}

	if err := os.Rename(tmpPath, s.Path(a.Model())); err != nil {
		return fmt.Errorf("failed to replace %s index: %w", a.Model(), err)
	}
	return nil
}

// Load implements ArtifactStore.
func (s *FileStore) Load(ctx context.Context, m model.Model) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a Artifact
	switch m {
	case model.ModelBoolean:
		a = &BooleanIndex{}
	case model.ModelTFIDF:
		a = &TFIDFIndex{}
	case model.ModelBM25:
		a = &BM25Index{}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownArtifact, m)
	}

	f, err := os.Open(s.Path(m))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run the index command first)", ErrIndexNotFound, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", m, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptIndex, m, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
