package dataset

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/cloudreplay/internal/fsutil"
)

// FrameExtension is the default extension for raw binary frame files.
const FrameExtension = ".bin"

// ListFrameFiles lists the frame files in dir with the given extension,
// sorted ascending by name. KITTI frame files use zero-padded numeric
// names (0000000000.bin, 0000000001.bin, ...) so lexicographic order is
// capture order.
//
// Returns ErrDataNotFound if the directory does not exist. A directory
// with no matching files yields an empty slice and no error; the caller
// surfaces the resulting cardinality mismatch against the timestamp log.
func ListFrameFiles(fsys fsutil.FileSystem, dir, ext string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: frame directory %s", ErrDataNotFound, dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	// ReadDir already sorts by name, but the contract here is load-bearing
	// for playback order, so enforce it rather than assume it.
	sort.Strings(files)

	return files, nil
}
