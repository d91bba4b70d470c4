// Package walk lists the files a batch scan covers.
package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/boyter/gocodewalker"
)

// DefaultPatterns selects the text formats the page scanner understands.
var DefaultPatterns = []string{"**/*.{txt,md,html,htm}"}

// Files walks root and returns the files matching any of patterns, sorted.
// Returned paths include root, so they open from the current directory.
// Patterns are doublestar globs matched against slash-separated paths
// relative to root; no patterns means DefaultPatterns. Files ignored by
// .gitignore or .ignore are skipped, as are hidden files.
func Files(ctx context.Context, root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	fileListQueue := make(chan *gocodewalker.File, 100)
	walker := gocodewalker.NewFileWalker(root, fileListQueue)
	walker.ExcludeDirectory = []string{".git"}

	errChan := make(chan error, 1)
	go func() {
		errChan <- walker.Start()
		close(errChan)
	}()

	var files []string
	for f := range fileListQueue {
		if ctx.Err() != nil {
			walker.Terminate()
			continue
		}
		rel, err := filepath.Rel(root, f.Location)
		if err != nil {
			continue
		}
		if Match(patterns, filepath.ToSlash(rel)) {
			files = append(files, f.Location)
		}
	}

	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Match reports whether the slash-separated path matches any pattern.
func Match(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
