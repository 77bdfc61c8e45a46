package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cloudreplay/internal/fsutil"
)

func TestListFrameFiles(t *testing.T) {
	t.Parallel()

	t.Run("sorted ascending by name", func(t *testing.T) {
		t.Parallel()
		fs := fsutil.NewMemoryFileSystem()
		require.NoError(t, fs.WriteFile("/data/0000000002.bin", []byte{1}, 0644))
		require.NoError(t, fs.WriteFile("/data/0000000000.bin", []byte{1}, 0644))
		require.NoError(t, fs.WriteFile("/data/0000000001.bin", []byte{1}, 0644))

		got, err := ListFrameFiles(fs, "/data", ".bin")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/data/0000000000.bin",
			"/data/0000000001.bin",
			"/data/0000000002.bin",
		}, got)
	})

	t.Run("filters by extension", func(t *testing.T) {
		t.Parallel()
		fs := fsutil.NewMemoryFileSystem()
		require.NoError(t, fs.WriteFile("/data/0000000000.bin", []byte{1}, 0644))
		require.NoError(t, fs.WriteFile("/data/readme.txt", []byte{1}, 0644))
		require.NoError(t, fs.WriteFile("/data/0000000001.BIN", []byte{1}, 0644))

		got, err := ListFrameFiles(fs, "/data", ".bin")
		require.NoError(t, err)
		// Extension match is case-insensitive; the txt file is excluded.
		assert.Len(t, got, 2)
	})

	t.Run("skips subdirectories", func(t *testing.T) {
		t.Parallel()
		fs := fsutil.NewMemoryFileSystem()
		require.NoError(t, fs.WriteFile("/data/0000000000.bin", []byte{1}, 0644))
		require.NoError(t, fs.MkdirAll("/data/nested.bin", 0755))

		got, err := ListFrameFiles(fs, "/data", ".bin")
		require.NoError(t, err)
		assert.Equal(t, []string{"/data/0000000000.bin"}, got)
	})

	t.Run("missing directory is DataNotFound", func(t *testing.T) {
		t.Parallel()
		fs := fsutil.NewMemoryFileSystem()

		_, err := ListFrameFiles(fs, "/missing", ".bin")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDataNotFound))
	})

	t.Run("empty directory yields empty slice, not error", func(t *testing.T) {
		t.Parallel()
		fs := fsutil.NewMemoryFileSystem()
		require.NoError(t, fs.MkdirAll("/data", 0755))

		got, err := ListFrameFiles(fs, "/data", ".bin")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
