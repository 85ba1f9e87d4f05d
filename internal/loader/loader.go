package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader walks the analyzed repository and selects files by extension,
// skipping excluded directories.
type Loader struct {
	root       string
	extensions map[string]bool
	excludes   map[string]bool
}

func New(root string, extensions, excludeDirs []string) *Loader {
	ext := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		ext[strings.ToLower(e)] = true
	}
	exc := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		exc[d] = true
	}
	return &Loader{root: root, extensions: ext, excludes: exc}
}

// Discover returns the repository-relative paths of all matching files, in
// walk order.
func (l *Loader) Discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if l.excludes[d.Name()] && path != l.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}

// Load reads one discovered file by its repository-relative path.
func (l *Loader) Load(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
