package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Persist writes the rendered snapshot to path, creating missing parent
// directories and truncating any previous report.
func (ms *MetricStore) Persist(path string) (err error) {
	dir := filepath.Dir(path)
	if err := ms.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDirectoryCreation, dir, err)
	}

	data, err := Render(ms.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}

	f, err := ms.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrReportWrite, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w %s: %w", ErrReportWrite, path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w %s: %w", ErrReportWrite, path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrReportWrite, path, err)
	}
	return nil
}
