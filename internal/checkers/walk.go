package checkers

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var skipDirs = map[string]bool{
	"node_modules": true, "target": true, "dist": true, "build": true,
	".git": true, ".venv": true, "__pycache__": true,
}

// walkTextFiles visits every non-skipped file under root, calling fn with
// the file's content and its path relative to root (forward-slash).
func walkTextFiles(root string, fn func(relPath string, lines []string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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

		data, err := os.ReadFile(path)
		if err != nil || looksBinary(data) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		fn(filepath.ToSlash(rel), strings.Split(string(data), "\n"))
		return nil
	})
}

func looksBinary(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
