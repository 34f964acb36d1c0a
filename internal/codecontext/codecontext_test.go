package codecontext

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestBuild_FiltersExtensionsAndSkipDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hi\n")
	writeFile(t, root, "data.bin", "\x00\x01\x02")
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = {}\n")
	writeFile(t, root, ".git/config", "[core]\n")

	ctx, _, err := Build(root, "https://github.com/acme/widget", Options{})
	require.NoError(t, err)

	var paths []string
	for _, f := range ctx.Files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, "README.md")
	assert.NotContains(t, paths, "data.bin")
	for _, p := range paths {
		assert.False(t, strings.HasPrefix(p, "node_modules"))
		assert.False(t, strings.HasPrefix(p, ".git"))
	}
}

func TestBuild_SortsByDepthThenLexicographic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.go", "package z\n")
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "sub/b.go", "package b\n")

	ctx, _, err := Build(root, "repo", Options{})
	require.NoError(t, err)

	require.Len(t, ctx.Files, 3)
	assert.Equal(t, "a.go", ctx.Files[0].Path)
	assert.Equal(t, "z.go", ctx.Files[1].Path)
	assert.Equal(t, "sub/b.go", ctx.Files[2].Path)
}

func TestBuild_CapsAtMaxFiles(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, root, strconv.Itoa(i)+".go", "package p\n")
	}

	ctx, _, err := Build(root, "repo", Options{MaxFiles: 2})
	require.NoError(t, err)
	assert.Len(t, ctx.Files, 2)
}

func TestBuild_TruncatesLongFiles(t *testing.T) {
	root := t.TempDir()
	// 30 bytes stays under the prefilter cutoff (maxChars*4 = 40) but
	// still exceeds maxChars (10), so it should be read and truncated
	// rather than skipped.
	writeFile(t, root, "big.go", strings.Repeat("x", 30))

	ctx, _, err := Build(root, "repo", Options{MaxCharsPerFile: 10})
	require.NoError(t, err)
	require.Len(t, ctx.Files, 1)
	assert.True(t, ctx.Files[0].Truncated)
	assert.Contains(t, ctx.Files[0].Content, "truncated")
}

func TestBuild_SkipsFilesExceedingPrefilterSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "huge.go", strings.Repeat("y", 100))

	ctx, _, err := Build(root, "repo", Options{MaxCharsPerFile: 10})
	require.NoError(t, err)
	// 100 bytes > 10*4 = 40 byte prefilter cutoff, so it is skipped entirely.
	assert.Len(t, ctx.Files, 0)
}

