package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository_RoundTrip(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	require.NoError(t, repo.WriteFile("logo", "brand.png", []byte("png")))

	f, info, err := repo.Open("logo", "/brand.png")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(3), info.Size())

	b, err := repo.ReadFile("logo", "brand.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))
}

func TestFileRepository_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	repo := NewFileRepository(root)
	require.NoError(t, repo.WriteFile("logo", "brand.png", []byte("png")))

	_, _, err := repo.Open("favicon", "../logo/brand.png")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = repo.Open("../logo", "brand.png")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = repo.Open("logo", "")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileRepository_Missing(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	_, err := repo.ReadFile("preset", "custom.scss")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
