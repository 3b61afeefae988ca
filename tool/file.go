package tool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	defaultReadLimit = 2000
	maxLineLength    = 2000
)

// FileToolOption configures file tools.
type FileToolOption func(*fileToolConfig)

type fileToolConfig struct {
	basePath    string
	maxFileSize int64
}

// WithBasePath restricts file operations to a directory. Paths, including
// absolute ones, are resolved beneath it.
func WithBasePath(path string) FileToolOption {
	return func(c *fileToolConfig) {
		c.basePath = path
	}
}

// WithMaxFileSize sets the maximum file size for read/write operations.
// Default is 10MB.
func WithMaxFileSize(bytes int64) FileToolOption {
	return func(c *fileToolConfig) {
		c.maxFileSize = bytes
	}
}

func applyFileOpts(opts []FileToolOption) *fileToolConfig {
	cfg := &fileToolConfig{
		maxFileSize: 10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *fileToolConfig) resolvePath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)
	if c.basePath == "" {
		return path, nil
	}

	basePath := filepath.Clean(c.basePath)
	fullPath := filepath.Join(basePath, path)
	rel, err := filepath.Rel(basePath, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside base path %q", path, basePath)
	}
	return fullPath, nil
}

// LsArgs are the arguments of the ls tool.
type LsArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory to list; defaults to the working directory"`
}

// ReadFileArgs are the arguments of the read_file tool.
type ReadFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"description=Path of the file to read"`
	Offset   int    `json:"offset,omitempty" jsonschema:"description=Number of lines to skip,minimum=0"`
	Limit    int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to return (default 2000),minimum=0"`
}

// WriteFileArgs are the arguments of the write_file tool.
type WriteFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"description=Path of the new file"`
	Content  string `json:"content" jsonschema:"description=Content to write"`
}

// EditFileArgs are the arguments of the edit_file tool.
type EditFileArgs struct {
	FilePath   string `json:"file_path" jsonschema:"description=Path of the file to edit"`
	OldString  string `json:"old_string" jsonschema:"description=Exact text to replace"`
	NewString  string `json:"new_string" jsonschema:"description=Replacement text"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"description=Replace every occurrence instead of requiring a unique match"`
}

// FileTools returns the ls, read_file, write_file, and edit_file tools.
func FileTools(opts ...FileToolOption) []Registration {
	cfg := applyFileOpts(opts)
	return []Registration{
		Func("ls", "List the files in a directory. Directories end with a slash.", cfg.ls),
		Func("read_file", "Read a file. Output lines are numbered starting at 1. Use offset and limit to page through long files.", cfg.readFile),
		Func("write_file", "Create a new file with the given content. Fails if the file already exists; use edit_file to change existing files.", cfg.writeFile),
		Func("edit_file", "Replace text in an existing file. old_string must match exactly and, unless replace_all is set, exactly once.", cfg.editFile),
	}
}

func (c *fileToolConfig) ls(ctx context.Context, args LsArgs) (string, error) {
	path, err := c.resolvePath(args.Path)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return fmt.Sprintf("%s is empty", args.Path), nil
	}
	return strings.Join(names, "\n"), nil
}

func (c *fileToolConfig) readFile(ctx context.Context, args ReadFileArgs) (string, error) {
	path, err := c.resolvePath(args.FilePath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", args.FilePath)
	}
	if info.Size() > c.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum %d", info.Size(), c.maxFileSize)
	}
	if info.Size() == 0 {
		return "File exists but has empty contents", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	limit := args.Limit
	if limit <= 0 {
		limit = defaultReadLimit
	}

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), int(c.maxFileSize)+1)
	line, written := 0, 0
	for scanner.Scan() {
		line++
		if line <= args.Offset {
			continue
		}
		if written == limit {
			break
		}
		text := scanner.Text()
		if len(text) > maxLineLength {
			text = text[:maxLineLength]
		}
		fmt.Fprintf(&b, "%6d\t%s\n", line, text)
		written++
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if written == 0 {
		return "", fmt.Errorf("offset %d is beyond the end of %s (%d lines)", args.Offset, args.FilePath, line)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func (c *fileToolConfig) writeFile(ctx context.Context, args WriteFileArgs) (string, error) {
	path, err := c.resolvePath(args.FilePath)
	if err != nil {
		return "", err
	}
	if int64(len(args.Content)) > c.maxFileSize {
		return "", fmt.Errorf("content size %d exceeds maximum %d", len(args.Content), c.maxFileSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("cannot write to %s because it already exists; read and then edit it instead", args.FilePath)
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(args.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated file %s", args.FilePath), nil
}

func (c *fileToolConfig) editFile(ctx context.Context, args EditFileArgs) (string, error) {
	if args.OldString == "" {
		return "", errors.New("old_string must not be empty")
	}
	path, err := c.resolvePath(args.FilePath)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if int64(len(content)) > c.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum %d", len(content), c.maxFileSize)
	}

	text := string(content)
	count := strings.Count(text, args.OldString)
	switch {
	case count == 0:
		return "", fmt.Errorf("string not found in %s: %q", args.FilePath, args.OldString)
	case count > 1 && !args.ReplaceAll:
		return "", fmt.Errorf("string appears %d times in %s; provide more context or set replace_all", count, args.FilePath)
	}

	if args.ReplaceAll {
		text = strings.ReplaceAll(text, args.OldString, args.NewString)
	} else {
		text = strings.Replace(text, args.OldString, args.NewString, 1)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully replaced %d instance(s) of the string in %s", count, args.FilePath), nil
}
