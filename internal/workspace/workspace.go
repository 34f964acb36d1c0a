// Package workspace implements the clone-and-release collaborator
// described in §4.7: a GitHub existence check, a depth-1 clone into a
// private temp directory, and guaranteed cleanup on Release even when the
// owning goroutine panics mid-pipeline.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/ternarybob/reviewsvc/internal/apperr"
)

// Handle is an acquired workspace: Root is the repository checkout, and
// Release must be called to remove it, regardless of whether the pipeline
// using it succeeded, failed, or panicked. Calls after the first are no-ops.
type Handle struct {
	Root    string
	Release func()
}

// Manager clones repositories into a private base directory and enforces a
// clone timeout.
type Manager struct {
	baseDir      string
	cloneTimeout time.Duration
	githubToken  string
}

// NewManager constructs a Manager. baseDir is created if missing; an empty
// baseDir uses the OS temp directory. githubToken, if set, is used only for
// the pre-clone existence check against the GitHub API (§4.7) - the clone
// itself uses the repo's public/anonymous HTTPS URL.
func NewManager(baseDir string, cloneTimeout time.Duration, githubToken string) (*Manager, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "reviewsvc-workspaces")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace base dir: %w", err)
	}
	return &Manager{baseDir: baseDir, cloneTimeout: cloneTimeout, githubToken: githubToken}, nil
}

var githubRepoPattern = regexp.MustCompile(`github\.com[:/]+([^/]+)/([^/.]+?)(?:\.git)?/?$`)

// ParseGitHubRepo extracts owner/repo from a GitHub URL, accepting both
// https and ssh forms.
func ParseGitHubRepo(repoURL string) (owner, repo string, ok bool) {
	m := githubRepoPattern.FindStringSubmatch(repoURL)
	if len(m) != 3 {
		return "", "", false
	}
	return m[1], m[2], true
}

// CheckExists verifies repoURL resolves to a reachable GitHub repository
// before a clone is attempted, grounded on the teacher's GitHub connector
// existence-check style (§4.7, §8 "repository does not exist"). Non-GitHub
// URLs (including local paths used in tests) skip this fast check and are
// left to fail at clone time instead, matching the "for GitHub-style URLs"
// qualifier in §4.1 step 2.
func (m *Manager) CheckExists(ctx context.Context, repoURL string) error {
	owner, repo, ok := ParseGitHubRepo(repoURL)
	if !ok {
		return nil
	}

	client := m.githubClient(ctx)
	_, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return apperr.Wrap(apperr.KindClone, fmt.Sprintf("repository %s/%s not found or not accessible", owner, repo), err)
	}
	return nil
}

func (m *Manager) githubClient(ctx context.Context) *github.Client {
	if m.githubToken == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: m.githubToken})
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// Acquire clones repoURL at depth 1 into a fresh directory under the
// manager's base dir and returns a Handle. The clone runs synchronously on
// the calling goroutine, bounded by the manager's clone timeout; a context
// cancellation or deadline aborts the shelled-out git process.
func (m *Manager) Acquire(ctx context.Context, jobID, repoURL string) (*Handle, error) {
	root := filepath.Join(m.baseDir, jobID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindClone, "create workspace directory", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()

	if err := m.clone(cloneCtx, repoURL, root); err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		os.RemoveAll(root)
	}

	return &Handle{Root: root, Release: release}, nil
}

func (m *Manager) clone(ctx context.Context, repoURL, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", repoURL, dest)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperr.Wrap(apperr.KindClone, "clone timed out", ctx.Err())
		}
		msg := strings.TrimSpace(string(output))
		return apperr.Wrap(apperr.KindClone, fmt.Sprintf("git clone failed: %s", msg), err)
	}
	return nil
}
