package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// skipDirs are noise directories that are never descended into and never
// reported as repositories.
var skipDirs = map[string]bool{
	"node_modules":  true,
	".venv":         true,
	"venv":          true,
	"target":        true,
	"dist":          true,
	"build":         true,
	"__pycache__":   true,
	".cache":        true,
	".pytest_cache": true,
	".next":         true,
	"vendor":        true,
	"result":        true,
}

// Discover walks root up to maxDepth levels looking for directories that
// contain a .git marker (a directory, or a file for worktree checkouts).
// Paths are canonicalized to deduplicate symlink cycles, and name collisions
// between distinct paths are disambiguated deterministically so that repo
// names stay unique downstream. An unreadable root is the only fatal error;
// unreadable subdirectories are logged and skipped.
func Discover(root string, maxDepth int, log *zap.Logger) ([]Repo, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDepth < 1 {
		maxDepth = 1
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading scan root %s: %w", root, err)
	}

	seen := make(map[string]bool)
	var repos []Repo

	var walk func(dir string, entries []os.DirEntry, depth int)
	walk = func(dir string, entries []os.DirEntry, depth int) {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				continue
			}

			path := filepath.Join(dir, name)
			if hasGitMarker(path) {
				canon := canonicalPath(path)
				if !seen[canon] {
					seen[canon] = true
					repos = append(repos, Repo{Name: name, Path: canon})
				}
				// Embedded checkouts (submodules, vendored clones) belong
				// to the repo that contains them.
				continue
			}

			if depth+1 >= maxDepth {
				continue
			}
			sub, err := os.ReadDir(path)
			if err != nil {
				log.Warn("skipping unreadable directory",
					zap.String("dir", path), zap.Error(err))
				continue
			}
			walk(path, sub, depth+1)
		}
	}
	walk(root, entries, 0)

	disambiguate(repos)

	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})
	return repos, nil
}

// hasGitMarker reports whether path contains a .git entry. Both directories
// (normal clones) and files (worktrees, submodule checkouts) count.
func hasGitMarker(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// canonicalPath resolves symlinks and relative segments so that two routes
// to the same repository map to one handle.
func canonicalPath(path string) string {
	canon, err := filepath.EvalSymlinks(path)
	if err != nil {
		canon = path
	}
	if abs, err := filepath.Abs(canon); err == nil {
		canon = abs
	}
	return canon
}

// disambiguate renames repos whose display names collide. The first try
// appends the parent directory name; remaining collisions get a numeric
// suffix. Repos are processed in path order so the outcome is deterministic.
func disambiguate(repos []Repo) {
	byPath := make([]*Repo, 0, len(repos))
	for i := range repos {
		byPath = append(byPath, &repos[i])
	}
	sort.Slice(byPath, func(i, j int) bool {
		return byPath[i].Path < byPath[j].Path
	})

	taken := make(map[string]bool, len(repos))
	for _, r := range byPath {
		name := r.Name
		if taken[name] {
			name = r.Name + "-" + filepath.Base(filepath.Dir(r.Path))
		}
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", r.Name, n)
		}
		taken[name] = true
		r.Name = name
	}
}
