package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
)

// Exporter writes a finished backup artifact somewhere durable and returns
// where it went.
type Exporter interface {
	Export(ctx context.Context, fileName string, data []byte) (location string, err error)
}

// DirectoryExporter writes artifacts into Dir. The file is complete on disk
// before Export returns. With Create set, a missing Dir is created;
// otherwise it must already exist.
type DirectoryExporter struct {
	Dir    string
	Create bool
}

// Export implements Exporter.
func (d DirectoryExporter) Export(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.Dir == "" {
		return "", fmt.Errorf("backup directory not set")
	}
	if d.Create {
		if err := os.MkdirAll(d.Dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", d.Dir, err)
		}
	} else if err := d.check(); err != nil {
		return "", err
	}

	path := filepath.Join(d.Dir, fileName)
	if err := localstore.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// check reports whether Dir is an existing directory.
func (d DirectoryExporter) check() error {
	info, err := os.Stat(d.Dir)
	if err != nil {
		return fmt.Errorf("opening backup directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.Dir)
	}
	return nil
}
