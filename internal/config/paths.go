package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the directories the application writes to.
type Paths struct {
	ExecutableDir string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFrom(filepath.Dir(exe)), nil
}

// PathsFrom builds Paths rooted at base.
func PathsFrom(base string) *Paths {
	return &Paths{
		ExecutableDir: base,
		LogsDir:       filepath.Join(base, DefaultLogsDir),
	}
}

// Resolve returns path unchanged when absolute, otherwise joined to the
// executable directory.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}
