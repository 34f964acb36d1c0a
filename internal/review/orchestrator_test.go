package review

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
	"github.com/ternarybob/reviewsvc/internal/workspace"
)

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
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func waitTerminal(t *testing.T, o *Orchestrator, id string) model.ReviewJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := o.Get(id)
		require.True(t, ok)
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("review job did not reach a terminal state in time")
	return model.ReviewJob{}
}

func TestOrchestrator_SuccessfulReviewWithoutModelClient(t *testing.T) {
	repoDir := setupLocalRepo(t)
	ws, err := workspace.NewManager(t.TempDir(), 10*time.Second, "")
	require.NoError(t, err)

	o := New(ws, nil, Options{TTL: time.Hour}, nil)
	id := o.Start(repoDir)
	require.NotEmpty(t, id)

	job := waitTerminal(t, o, id)
	assert.Equal(t, model.ReviewStatusCompleted, job.Status)
	assert.Empty(t, job.Suggestions, "no model client configured - no suggestions expected")
}

func TestOrchestrator_FailsForNonexistentRepo(t *testing.T) {
	ws, err := workspace.NewManager(t.TempDir(), 2*time.Second, "")
	require.NoError(t, err)

	o := New(ws, nil, Options{TTL: time.Hour}, nil)
	id := o.Start(filepath.Join(t.TempDir(), "does-not-exist"))

	job := waitTerminal(t, o, id)
	assert.Equal(t, model.ReviewStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestOrchestrator_RunsReviewersWhenModelClientConfigured(t *testing.T) {
	repoDir := setupLocalRepo(t)
	ws, err := workspace.NewManager(t.TempDir(), 10*time.Second, "")
	require.NoError(t, err)

	stub := &modelclient.Stub{ResponseText: `{"suggestions": [{"category": "style", "title": "Add docs", "body": "Document exported functions.", "references": []}]}`}
	o := New(ws, stub, Options{TTL: time.Hour}, nil)
	id := o.Start(repoDir)

	job := waitTerminal(t, o, id)
	assert.Equal(t, model.ReviewStatusCompleted, job.Status)
	assert.NotEmpty(t, job.Suggestions)
}

func TestOrchestrator_SubscribeReceivesTerminalEvent(t *testing.T) {
	repoDir := setupLocalRepo(t)
	ws, err := workspace.NewManager(t.TempDir(), 10*time.Second, "")
	require.NoError(t, err)

	o := New(ws, nil, Options{TTL: time.Hour}, nil)
	id := o.Start(repoDir)

	sub, ok := o.Subscribe(id)
	require.True(t, ok)

	var last model.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, open := <-sub:
			if !open {
				goto done
			}
			last = e
		case <-deadline:
			t.Fatal("timed out waiting for event stream to close")
		}
	}
done:
	assert.True(t, last.Type.IsTerminal())
}

func TestOrchestrator_GetUnknownJobReturnsFalse(t *testing.T) {
	ws, err := workspace.NewManager(t.TempDir(), time.Second, "")
	require.NoError(t, err)
	o := New(ws, nil, Options{TTL: time.Hour}, nil)

	_, ok := o.Get("does-not-exist")
	assert.False(t, ok)
}
