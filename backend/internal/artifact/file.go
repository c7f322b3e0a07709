package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "friendmap/backend/pkg/errors"
)

// FileStore keeps pages as <dir>/<id>.html
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageFailed("create graph dir", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".html")
}

// Put writes the page atomically
func (s *FileStore) Put(ctx context.Context, id string, page []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("put artifact", err)
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return apperrors.NewStorageFailed("create artifact", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(page); err != nil {
		tmp.Close()
		return apperrors.NewStorageFailed("write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageFailed("write artifact", err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return apperrors.NewStorageFailed("write artifact", err)
	}
	return nil
}

// Get reads a page back
func (s *FileStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	page, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewArtifactNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewStorageFailed("read artifact", err)
	}
	return page, nil
}
