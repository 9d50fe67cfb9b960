package tool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moyoez/detectview/types"
)

// ReadImageFile reads a local file for upload. The size limit is checked against
// the file info first so oversized files are never read into memory.
func ReadImageFile(path string, limit int64) (string, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat %s: %v", path, err)
	}
	if info.IsDir() {
		return "", nil, types.NewError(types.ErrValidation, "", "Please choose an image file, not a directory", nil)
	}
	if limit > 0 && info.Size() > limit {
		return "", nil, types.NewError(types.ErrValidation, "",
			fmt.Sprintf("File size must be %d MB or less", limit/(1024*1024)), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			DefaultLogger.Errorf("Failed to close %s: %v", path, err)
		}
	}()

	reader := io.Reader(f)
	if limit > 0 {
		// the file may grow between Stat and Read
		reader = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	return filepath.Base(path), data, nil
}
