package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ContentReader resolves storage-relative keys to raw document text.
type ContentReader interface {
	ReadByPath(path string) (string, error)
}

type fileContentReader struct {
	root string
}

func NewFileContentReader(root string) ContentReader {
	return &fileContentReader{root: root}
}

func (r *fileContentReader) ReadByPath(path string) (string, error) {
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid content path %q", path)
	}
	raw, err := os.ReadFile(filepath.Join(r.root, clean))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
