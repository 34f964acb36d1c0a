package checkers

import (
	"os"
	"path/filepath"
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

func TestRegistry_OrderIsFixed(t *testing.T) {
	reg := Registry()
	require.Len(t, reg, 4)
	assert.Equal(t, "linter", reg[0].Name())
	assert.Equal(t, "comment_checker", reg[1].Name())
	assert.Equal(t, "typos_checker", reg[2].Name())
	assert.Equal(t, "format_checker", reg[3].Name())
}

func TestLinter_FlagsLongLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", strings.Repeat("x", 200)+"\n")

	diags, err := (&Linter{}).Run(root)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "line_too_long", diags[0].Rule)
	assert.Equal(t, 1, diags[0].Line)
}

func TestCommentChecker_FlagsTodoMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "// TODO: fix this\nfunc ok() {}\n")

	diags, err := (&CommentChecker{}).Run(root)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "todo_comment", diags[0].Rule)
}

func TestTyposChecker_FlagsCommonMisspellings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.md", "We will recieve the payload and seperate it.\n")

	diags, err := (&TyposChecker{}).Run(root)
	require.NoError(t, err)
	assert.Len(t, diags, 2)
}

func TestFormatChecker_FlagsTrailingWhitespaceAndMixedIndent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "func ok() {}   \n\t line with mixed indent\n")

	diags, err := (&FormatChecker{}).Run(root)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(diags), 1)
}

func TestWalkTextFiles_SkipsVendorDirsAndBinaries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/lib.js", strings.Repeat("x", 200))
	writeFile(t, root, "data.bin", "\x00\x01binary")
	writeFile(t, root, "main.go", "ok\n")

	var visited []string
	err := walkTextFiles(root, func(relPath string, lines []string) {
		visited = append(visited, relPath)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, visited)
}
