package cnls

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// skipDirs are directories excluded from the workspace walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// IndexWorkspace discovers source and stylesheet files under root and
// indexes them read-only in the background, so definition search reaches
// files that are not open in the editor. Files already open are left alone.
// Failures on individual files are recorded and skipped; they never abort
// the rest of the scan.
func (e *Engine) IndexWorkspace(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available — fall back to walk.
		paths, err = e.walkListFiles(root)
		if err != nil {
			return fmt.Errorf("workspace scan: %w", err)
		}
	}

	// Record the discovered set first so DidClose can tell whether a file
	// should fall back to background indexing.
	discovered := make(map[string]Dialect, len(paths))
	for _, path := range paths {
		dialect, ok := DialectForPath(path)
		if !ok {
			continue
		}
		discovered[PathToURI(path)] = dialect
	}
	e.mu.Lock()
	for uri, dialect := range discovered {
		e.workspace[uri] = dialect
	}
	e.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for uri, dialect := range discovered {
		g.Go(func() error {
			if err := e.indexWorkspaceFile(ctx, uri, dialect); err != nil {
				e.log.Warningf("workspace scan %s: %s", uri, err)
			}
			return ctx.Err()
		})
	}
	return g.Wait()
}

// rescanBackground re-indexes background snapshots from their held text,
// used after a configuration change. Open documents that appeared since the
// snapshot was taken still win inside the index.
func (e *Engine) rescanBackground(ctx context.Context, docs []*Document) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, doc := range docs {
		g.Go(func() error {
			if err := e.applyScan(ctx, doc.URI, doc.Dialect, doc.Text, 0, true); err != nil {
				e.log.Warningf("re-scan %s: %s", doc.URI, err)
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warningf("background re-scan: %s", err)
	}
}

// indexWorkspaceFile reads one discovered file from disk and installs it as
// a background snapshot. Open documents take precedence inside the index.
func (e *Engine) indexWorkspaceFile(ctx context.Context, uri string, dialect Dialect) error {
	path, err := URIToPath(uri)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return e.applyScan(ctx, uri, dialect, string(content), 0, true)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported dialects.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := DialectForPath(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available. Skips hidden directories and the
// usual build/output directories.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := DialectForPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIToPath converts a file:// URI to a filesystem path.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("uri %q: unsupported scheme %q", uri, u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}
