// Package report writes scan results to the output directory and the console.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileManager owns the output directory of a scan
type FileManager struct {
	OutputDir string
	Logger    *logrus.Logger
}

// NewFileManager creates the output directory if needed
func NewFileManager(outputDir string, logger *logrus.Logger) (*FileManager, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create output dir %s", outputDir)
	}
	return &FileManager{OutputDir: outputDir, Logger: logger}, nil
}

// AddDir creates a folder inside the output directory and returns its path
func (fm *FileManager) AddDir(name string) (string, error) {
	path := fm.Path(name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", errors.Wrapf(err, "cannot add dir %s", path)
	}
	return path, nil
}

// Path joins elem onto the output directory
func (fm *FileManager) Path(elem ...string) string {
	return filepath.Join(append([]string{fm.OutputDir}, elem...)...)
}

// WriteCSV writes header and rows to dir/fileName, replacing any previous file
func (fm *FileManager) WriteCSV(dir, fileName string, header []string, rows [][]string) error {
	path := fm.Path(dir, fileName)
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", path)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	fm.Logger.Debugf("Wrote %d rows to %s", len(rows), path)
	return file.Close()
}

// WriteText writes one line per entry to fileName in the output directory
func (fm *FileManager) WriteText(fileName string, lines []string) error {
	path := fm.Path(fileName)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", path)
	}
	return nil
}
