package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker expands ingest arguments (plain paths, directories or doublestar
// patterns) into the list of document files to ingest.
type Walker struct {
	excludes []string
	accept   func(name string) bool
}

// NewWalker returns a walker skipping paths matching any exclude pattern.
// accept filters candidate files by name; nil accepts everything.
func NewWalker(excludes []string, accept func(name string) bool) *Walker {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Walker{
		excludes: excludes,
		accept:   accept,
	}
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Expand resolves each pattern and returns the matching files, sorted and
// deduplicated. A directory argument is walked recursively.
func (w *Walker) Expand(patterns []string) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var files []FileInfo

	add := func(path string, info os.FileInfo) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] || !w.accept(info.Name()) {
			return
		}
		seen[abs] = true
		files = append(files, FileInfo{
			Path:    abs,
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
	}

	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				if !w.shouldExclude(filepath.ToSlash(match)) {
					add(match, info)
				}
				continue
			}
			walked, err := w.walk(match)
			if err != nil {
				return nil, err
			}
			for _, p := range walked {
				add(p.path, p.info)
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

type walkedFile struct {
	path string
	info os.FileInfo
}

func (w *Walker) walk(root string) ([]walkedFile, error) {
	var out []walkedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if rel != "." && w.shouldExclude(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.shouldExclude(rel) {
			out = append(out, walkedFile{path: path, info: info})
		}
		return nil
	})
	return out, err
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
