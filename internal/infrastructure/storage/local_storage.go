package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mystock/warehouse/internal/application/report"
)

var _ report.ReportStorage = (*LocalReportStorage)(nil)

// LocalReportStorage writes reports into a directory on disk
type LocalReportStorage struct {
	dir string
}

// NewLocalReportStorage creates storage rooted at dir
func NewLocalReportStorage(dir string) *LocalReportStorage {
	return &LocalReportStorage{dir: dir}
}

// Put writes the report through a temporary file and returns its path.
// An existing report with the same name is replaced.
func (s *LocalReportStorage) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.New("report name must be a plain file name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if size >= 0 && written != size {
		tmp.Close()
		return "", fmt.Errorf("write report: wrote %d of %d bytes", written, size)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	return target, nil
}
