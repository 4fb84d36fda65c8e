package vm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// archiveName is the file name of the exported root filesystem.
const archiveName = "rootfs.tar"

// exportWorkspace is a process-unique scratch directory holding one image export.
type exportWorkspace struct {
	dir string
}

// newExportWorkspace creates a fresh directory under root. The name is a
// fixed-length random alphanumeric string so concurrent runs never share it.
func newExportWorkspace(root string) (*exportWorkspace, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create export root: %w", err)
	}

	dir := filepath.Join(root, strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	return &exportWorkspace{dir: dir}, nil
}

// ArchivePath returns where the export tarball is written.
func (w *exportWorkspace) ArchivePath() string {
	return filepath.Join(w.dir, archiveName)
}

// Dir returns the workspace directory.
func (w *exportWorkspace) Dir() string {
	return w.dir
}

// Close removes the workspace and everything in it.
func (w *exportWorkspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove export dir: %w", err)
	}
	return nil
}
