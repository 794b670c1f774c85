package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrFileNotFound = errors.New("file not found")

// FileRepository serves theme setting files stored on disk as
// <root>/<filearea>/<filename>.
type FileRepository struct {
	root string
}

func NewFileRepository(root string) *FileRepository {
	return &FileRepository{root: root}
}

func (r *FileRepository) resolve(area, filename string) (string, error) {
	clean := path.Clean("/" + filename)
	if area == "" || strings.ContainsAny(area, `/\`) || clean == "/" {
		return "", ErrFileNotFound
	}
	return filepath.Join(r.root, area, filepath.FromSlash(clean)), nil
}

// Open returns the stored file; the caller closes it.
func (r *FileRepository) Open(area, filename string) (*os.File, fs.FileInfo, error) {
	p, err := r.resolve(area, filename)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s/%s: %w", area, filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrFileNotFound
	}
	return f, info, nil
}

func (r *FileRepository) ReadFile(area, filename string) ([]byte, error) {
	p, err := r.resolve(area, filename)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return b, err
}

func (r *FileRepository) WriteFile(area, filename string, data []byte) error {
	p, err := r.resolve(area, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
