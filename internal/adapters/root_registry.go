package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/ports"
)

// RootRegistryFile persists project roots as a newline-delimited text
// file. Entries are append-only; duplicates are suppressed on insert.
type RootRegistryFile struct {
	path string
}

func NewRootRegistryFile(path string) RootRegistryFile {
	return RootRegistryFile{path: path}
}

func (r RootRegistryFile) Roots() ([]string, error) {
	content, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read project roots '%s'", r.path)).
			WithCause(err)
	}
	var roots []string
	for _, line := range strings.Split(string(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			roots = append(roots, line)
		}
	}
	return roots, nil
}

func (r RootRegistryFile) AddRoot(path string) error {
	roots, err := r.Roots()
	if err != nil {
		return err
	}
	for _, root := range roots {
		if root == path {
			return nil
		}
	}
	roots = append(roots, path)
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(r.path, []byte(strings.Join(roots, "\n")+"\n"), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write project roots '%s'", r.path)).
			WithCause(err)
	}
	return nil
}

var _ ports.RootRegistryPort = RootRegistryFile{}
