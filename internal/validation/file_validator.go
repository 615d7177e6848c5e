package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotWorkbook is returned for paths without an .xlsx or .xlsm extension.
	ErrNotWorkbook = errors.New("not an Excel workbook")
	// ErrTempWorkbook is returned for Excel lock files (~$name.xlsx).
	ErrTempWorkbook = errors.New("temporary Excel lock file")
	// ErrFileTooLarge is returned when a workbook exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)

// FileValidator checks workbook inputs and report outputs on disk before the
// pipeline touches them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and can be opened.
// It returns the file size.
func (v *FileValidator) ValidateFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return 0, fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info.Size(), nil
}

// ValidateWorkbook checks that path is a readable .xlsx or .xlsm workbook no
// larger than maxBytes. A maxBytes of zero disables the size check.
func (v *FileValidator) ValidateWorkbook(path string, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%s: %w (extension %q)", path, ErrNotWorkbook, ext)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrTempWorkbook)
	}

	size, err := v.ValidateFile(path)
	if err != nil {
		return err
	}
	if maxBytes > 0 && size > maxBytes {
		v.logger.Error("Workbook too large",
			slog.String("file", path),
			slog.Int64("size", size),
			slog.Int64("max_bytes", maxBytes))
		return fmt.Errorf("%s (%d bytes): %w", path, size, ErrFileTooLarge)
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it when needed, and
// that a file can be written inside it.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
