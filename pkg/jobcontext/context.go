package jobcontext

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Context is a content-addressed mapping from context-relative path strings
// to local files and directories. It backs file-valued job arguments.
//
// Entries can be registered before the on-disk context directory exists
// (typically before the job's first save); Flush materializes them and is
// idempotent.
type Context struct {
	// contextPath -> absolute local source path
	entries map[string]string
}

// New creates an empty context.
func New() *Context {
	return &Context{entries: make(map[string]string)}
}

// FromDir builds a context describing an already-materialized context
// directory, mapping every file to its relative path. Sources already live
// at their destination, so Flush becomes a no-op.
func FromDir(dir string) (*Context, error) {
	ctx := New()
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ctx, nil
		}
		return nil, &ContextError{
			Type:    "file_error",
			Message: "failed to read context directory",
			Err:     err,
			Context: dir,
		}
	}
	if !info.IsDir() {
		return nil, &ContextError{
			Type:    "invalid_input",
			Message: "context path is not a directory",
			Context: dir,
		}
	}

	err = filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		ctx.entries[filepath.ToSlash(rel)] = p
		return nil
	})
	if err != nil {
		return nil, &ContextError{
			Type:    "file_error",
			Message: "failed to scan context directory",
			Err:     err,
			Context: dir,
		}
	}
	return ctx, nil
}

// AddFile registers a local file or directory under a context-relative path
// and returns the normalized path it was stored under.
//
// An empty contextPath defaults to the source's own filename. A contextPath
// ending in "/" is treated as a directory prefix and the source filename is
// appended. Directory sources always map to a path ending in "/". Paths
// that normalize outside the context root are rejected.
func (c *Context) AddFile(file, contextPath string) (string, error) {
	if file == "" {
		return "", &ContextError{
			Type:    "invalid_input",
			Message: "file path cannot be empty",
		}
	}

	info, err := os.Stat(file)
	if err != nil {
		return "", &ContextError{
			Type:    "not_found",
			Message: "file or directory does not exist",
			Err:     err,
			Context: file,
		}
	}

	normalized, err := ResolvePath(file, contextPath, info.IsDir())
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return "", &ContextError{
			Type:    "file_error",
			Message: "failed to resolve file path",
			Err:     err,
			Context: file,
		}
	}

	c.entries[normalized] = abs
	return normalized, nil
}

// ResolvePath computes and normalizes the context-relative path for a
// source without registering it. Exposed so value binding can agree with
// the context on path resolution.
func ResolvePath(file, contextPath string, isDir bool) (string, error) {
	p := contextPath
	if p == "" {
		p = filepath.Base(file)
	} else if strings.HasSuffix(p, "/") && !isDir {
		p += filepath.Base(file)
	}

	// Resolve "." and ".." segments; anything still escaping the context
	// root is rejected rather than silently rewritten.
	normalized := path.Clean(filepath.ToSlash(p))
	if normalized == "." || normalized == ".." || strings.HasPrefix(normalized, "../") || strings.HasPrefix(normalized, "/") {
		return "", &ContextError{
			Type:    "invalid_path",
			Message: fmt.Sprintf("context path escapes the context root: %s", contextPath),
			Context: contextPath,
		}
	}
	if isDir {
		normalized += "/"
	}
	return normalized, nil
}

// RemoveFile drops the entry stored under contextPath.
func (c *Context) RemoveFile(contextPath string) {
	delete(c.entries, contextPath)
}

// FileFor returns the local source registered under contextPath.
func (c *Context) FileFor(contextPath string) (string, bool) {
	file, ok := c.entries[contextPath]
	return file, ok
}

// PathFor returns the context path a local file was registered under.
func (c *Context) PathFor(file string) (string, bool) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	for p, f := range c.entries {
		if f == abs {
			return p, true
		}
	}
	return "", false
}

// Exists reports whether contextPath names a registered file or an implied
// directory.
func (c *Context) Exists(contextPath string) bool {
	return c.IsFile(contextPath) || c.IsDir(contextPath)
}

// IsFile reports whether contextPath is a registered file entry.
func (c *Context) IsFile(contextPath string) bool {
	_, ok := c.entries[strings.TrimSuffix(contextPath, "/")]
	return ok
}

// IsDir reports whether contextPath is a directory. Directories are implied
// by prefix: a context may be fully described before it is materialized, so
// existence cannot rely on a real filesystem directory entry.
func (c *Context) IsDir(contextPath string) bool {
	prefix := strings.TrimSuffix(contextPath, "/") + "/"
	for p := range c.entries {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Paths returns all registered context paths in ascending order.
func (c *Context) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Empty reports whether the context holds no entries.
func (c *Context) Empty() bool {
	return len(c.entries) == 0
}

// Flush copies every registered source into contextDir. It is idempotent:
// a source that already canonically resolves to its destination is skipped.
// Destinations resolving outside contextDir fail the whole flush.
func (c *Context) Flush(contextDir string) error {
	if contextDir == "" {
		return &ContextError{
			Type:    "invalid_input",
			Message: "context directory cannot be empty",
		}
	}

	absDir, err := filepath.Abs(contextDir)
	if err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: "failed to resolve context directory",
			Err:     err,
			Context: contextDir,
		}
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to create context directory: %s", absDir),
			Err:     err,
		}
	}

	for _, p := range c.Paths() {
		src := c.entries[p]
		dest := filepath.Join(absDir, filepath.FromSlash(strings.TrimSuffix(p, "/")))

		// Path traversal guard: the join must stay inside the context root.
		rel, err := filepath.Rel(absDir, dest)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return &ContextError{
				Type:    "invalid_path",
				Message: fmt.Sprintf("context path resolves outside the context directory: %s", p),
				Context: p,
			}
		}

		if samePath(src, dest) {
			continue
		}

		if err := copyTree(src, dest); err != nil {
			return err
		}
	}

	return nil
}

// Zip bundles the materialized context directory into a temporary zip
// archive and returns its path. The caller owns the temp file.
func (c *Context) Zip(contextDir string) (string, error) {
	tmp, err := os.CreateTemp("", "pipeline-context-*.zip")
	if err != nil {
		return "", &ContextError{
			Type:    "file_error",
			Message: "failed to create temporary zip file",
			Err:     err,
		}
	}
	defer tmp.Close()

	w := zip.NewWriter(tmp)
	err = filepath.Walk(contextDir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(contextDir, p)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		w.Close()
		os.Remove(tmp.Name())
		return "", &ContextError{
			Type:    "file_error",
			Message: "failed to zip context directory",
			Err:     err,
			Context: contextDir,
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &ContextError{
			Type:    "file_error",
			Message: "failed to finalize context zip",
			Err:     err,
			Context: contextDir,
		}
	}

	return tmp.Name(), nil
}

// samePath reports whether two paths canonically resolve to the same
// filesystem entry.
func samePath(a, b string) bool {
	ca, err := filepath.EvalSymlinks(a)
	if err != nil {
		ca = filepath.Clean(a)
	}
	cb, err := filepath.EvalSymlinks(b)
	if err != nil {
		cb = filepath.Clean(b)
	}
	return ca == cb
}

// copyTree copies a file, or a directory recursively, to dest.
func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &ContextError{
			Type:    "not_found",
			Message: "source disappeared before copy",
			Err:     err,
			Context: src,
		}
	}

	if info.IsDir() {
		return filepath.Walk(src, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			target := filepath.Join(dest, rel)
			if fi.IsDir() {
				return os.MkdirAll(target, 0755)
			}
			return copyFile(p, target)
		})
	}

	return copyFile(src, dest)
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to create directory for: %s", dest),
			Err:     err,
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to open source file: %s", src),
			Err:     err,
		}
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to create destination file: %s", dest),
			Err:     err,
		}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &ContextError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to copy %s to %s", src, dest),
			Err:     err,
		}
	}
	return nil
}
