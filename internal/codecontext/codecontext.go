// Package codecontext builds the deterministic, capped view of a cloned
// repository that both the review pipeline's reviewer stage and the grade
// pipeline's analyze stage hand to the model (§4.2 step 3, §4.5).
package codecontext

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File is one selected, possibly-truncated source file.
type File struct {
	Path    string // forward-slash, relative to the workspace root
	Content string
	Lines   int
	Truncated bool
}

// Context is the capped set of files handed to a prompt builder, plus the
// repo URL for prompt framing.
type Context struct {
	RepoURL string
	Files   []File
}

// Options bounds the walk; zero values fall back to the §4.5 review
// defaults (20 files, 4000 chars).
type Options struct {
	MaxFiles        int
	MaxCharsPerFile int
}

const (
	defaultMaxFiles        = 20
	defaultMaxCharsPerFile = 4000
)

var acceptedExtensions = map[string]bool{
	".rs": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".go": true, ".java": true, ".kt": true, ".rb": true,
	".php": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".cs": true, ".swift": true, ".md": true, ".toml": true, ".yaml": true,
	".yml": true, ".json": true,
}

var skipDirs = map[string]bool{
	"node_modules": true, "target": true, "dist": true, "build": true,
	".git": true, ".venv": true, "__pycache__": true,
}

type candidate struct {
	relPath string
	absPath string
	depth   int
}

// Build walks root and returns the deterministic Context described in
// §4.2 step 3 / §4.5: accepted extensions only, skipping vendored and
// hidden directories, pre-filtering oversized files by disk size, then
// sorting by (depth ascending, lexicographic path) before capping and
// reading.
func Build(root, repoURL string, opts Options) (*Context, int, error) {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	maxChars := opts.MaxCharsPerFile
	if maxChars <= 0 {
		maxChars = defaultMaxCharsPerFile
	}

	candidates, err := collect(root, maxChars)
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].depth != candidates[j].depth {
			return candidates[i].depth < candidates[j].depth
		}
		return candidates[i].relPath < candidates[j].relPath
	})

	if len(candidates) > maxFiles {
		candidates = candidates[:maxFiles]
	}

	totalLines := 0
	files := make([]File, 0, len(candidates))
	for _, c := range candidates {
		f, err := readCapped(c.absPath, c.relPath, maxChars)
		if err != nil {
			continue
		}
		totalLines += f.Lines
		files = append(files, f)
	}

	return &Context{RepoURL: repoURL, Files: files}, totalLines, nil
}

// Render formats the context as plain text suitable for embedding in a
// model prompt: one section per file, truncated files flagged explicitly.
func (c *Context) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n\n", c.RepoURL)
	for _, f := range c.Files {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", f.Path, f.Content)
		if f.Truncated {
			b.WriteString("[file truncated]\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func collect(root string, maxChars int) ([]candidate, error) {
	var out []candidate
	maxBytes := int64(maxChars) * 4

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !acceptedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxBytes {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		out = append(out, candidate{
			relPath: rel,
			absPath: path,
			depth:   strings.Count(rel, "/"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}
	return out, nil
}

func readCapped(absPath, relPath string, maxChars int) (File, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return File{}, err
	}
	content := string(data)
	truncated := false
	if len(content) > maxChars {
		content = content[:maxChars] + "\n... [truncated at " + strconv.Itoa(maxChars) + " characters]"
		truncated = true
	}
	return File{
		Path:      relPath,
		Content:   content,
		Lines:     strings.Count(content, "\n") + 1,
		Truncated: truncated,
	}, nil
}
