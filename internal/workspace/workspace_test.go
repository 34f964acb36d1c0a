package workspace

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitHubRepo(t *testing.T) {
	cases := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"https://github.com/acme/widget", "acme", "widget", true},
		{"https://github.com/acme/widget.git", "acme", "widget", true},
		{"git@github.com:acme/widget.git", "acme", "widget", true},
		{"https://gitlab.com/acme/widget", "", "", false},
	}
	for _, c := range cases {
		owner, repo, ok := ParseGitHubRepo(c.url)
		assert.Equal(t, c.wantOK, ok, c.url)
		if c.wantOK {
			assert.Equal(t, c.wantOwner, owner, c.url)
			assert.Equal(t, c.wantRepo, repo, c.url)
		}
	}
}

// setupLocalRepo creates a throwaway git repository on disk usable as a
// clone source via a file:// style path, so Acquire can be tested without
// reaching the network.
func setupLocalRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in test environment")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		require.NoError(t, cmd.Run(), args)
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestManager_AcquireAndRelease(t *testing.T) {
	repoDir := setupLocalRepo(t)

	m, err := NewManager(t.TempDir(), 10*time.Second, "")
	require.NoError(t, err)

	handle, err := m.Acquire(context.Background(), "job-1", repoDir)
	require.NoError(t, err)
	require.DirExists(t, handle.Root)
	assert.FileExists(t, filepath.Join(handle.Root, "README.md"))

	handle.Release()
	_, statErr := os.Stat(handle.Root)
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_AcquireFailsForNonexistentSource(t *testing.T) {
	m, err := NewManager(t.TempDir(), 2*time.Second, "")
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "job-2", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestManager_ReleaseIsIdempotent(t *testing.T) {
	repoDir := setupLocalRepo(t)
	m, err := NewManager(t.TempDir(), 10*time.Second, "")
	require.NoError(t, err)

	handle, err := m.Acquire(context.Background(), "job-3", repoDir)
	require.NoError(t, err)

	handle.Release()
	assert.NotPanics(t, handle.Release)
}
