package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
)

func fileRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRegistry().Add(FileTools(WithBasePath(dir))...), dir
}

func run(t *testing.T, r *Registry, name, args string) ai.ToolResult {
	t.Helper()
	res, err := r.Execute(context.Background(), ai.ToolCall{ID: "c", Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func TestFileTools(t *testing.T) {
	r, _ := fileRegistry(t)
	assert.Equal(t, []string{"edit_file", "ls", "read_file", "write_file"}, r.Names())
}

func TestLs(t *testing.T) {
	r, dir := fileRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))

	res := run(t, r, "ls", `{}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "a/\nb.txt", res.Content)

	res = run(t, r, "ls", `{"path":"a"}`)
	assert.Equal(t, "a is empty", res.Content)
}

func TestReadFile(t *testing.T) {
	r, dir := fileRegistry(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("one\ntwo\nthree\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))

	t.Run("numbers lines", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"notes.txt"}`)
		assert.Equal(t, "     1\tone\n     2\ttwo\n     3\tthree", res.Content)
	})

	t.Run("offset and limit", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"notes.txt","offset":1,"limit":1}`)
		assert.Equal(t, "     2\ttwo", res.Content)
	})

	t.Run("offset past end", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"notes.txt","offset":10}`)
		assert.True(t, res.IsError)
	})

	t.Run("empty file", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"empty.txt"}`)
		assert.False(t, res.IsError)
		assert.Contains(t, res.Content, "empty")
	})

	t.Run("missing file", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"nope.txt"}`)
		assert.True(t, res.IsError)
	})

	t.Run("escaping the base path", func(t *testing.T) {
		res := run(t, r, "read_file", `{"file_path":"../../etc/passwd"}`)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "outside base path")
	})
}

func TestWriteFile(t *testing.T) {
	r, dir := fileRegistry(t)

	res := run(t, r, "write_file", `{"file_path":"sub/a.txt","content":"hello"}`)
	require.False(t, res.IsError, res.Content)
	data, err := os.ReadFile(filepath.Join(dir, "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	res = run(t, r, "write_file", `{"file_path":"sub/a.txt","content":"again"}`)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "already exists")

	t.Run("absolute paths stay under the base", func(t *testing.T) {
		res := run(t, r, "write_file", `{"file_path":"/abs.txt","content":"x"}`)
		require.False(t, res.IsError, res.Content)
		assert.FileExists(t, filepath.Join(dir, "abs.txt"))
	})

	t.Run("size limit", func(t *testing.T) {
		small := NewRegistry().Add(FileTools(WithBasePath(dir), WithMaxFileSize(2))...)
		res := run(t, small, "write_file", `{"file_path":"big.txt","content":"too big"}`)
		assert.True(t, res.IsError)
	})
}

func TestEditFile(t *testing.T) {
	r, dir := fileRegistry(t)
	path := filepath.Join(dir, "a.txt")

	reset := func() {
		require.NoError(t, os.WriteFile(path, []byte("foo bar foo"), 0o644))
	}

	t.Run("ambiguous match", func(t *testing.T) {
		reset()
		res := run(t, r, "edit_file", `{"file_path":"a.txt","old_string":"foo","new_string":"baz"}`)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "2 times")
	})

	t.Run("unique match", func(t *testing.T) {
		reset()
		res := run(t, r, "edit_file", `{"file_path":"a.txt","old_string":"bar","new_string":"qux"}`)
		require.False(t, res.IsError, res.Content)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "foo qux foo", string(data))
	})

	t.Run("replace all", func(t *testing.T) {
		reset()
		res := run(t, r, "edit_file", `{"file_path":"a.txt","old_string":"foo","new_string":"baz","replace_all":true}`)
		require.False(t, res.IsError, res.Content)
		assert.Contains(t, res.Content, "2 instance(s)")
		data, _ := os.ReadFile(path)
		assert.Equal(t, "baz bar baz", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		reset()
		res := run(t, r, "edit_file", `{"file_path":"a.txt","old_string":"zzz","new_string":"y"}`)
		assert.True(t, res.IsError)
	})
}
