package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Limits bounds the per-repo tree walks so a single oversized repository
// cannot stall a scan. When a ceiling is hit the walk stops and the counts
// reflect the scanned subset.
type Limits struct {
	// MaxDiscoveryDepth is how many directory levels Discover descends.
	MaxDiscoveryDepth int

	// MaxTreeDepth is how deep file walks descend within one repo.
	MaxTreeDepth int

	// MaxFilesPerRepo caps the number of files visited per repo.
	MaxFilesPerRepo int

	// MaxFileBytes skips files larger than this many bytes.
	MaxFileBytes int64

	// MaxSecurityFiles caps the number of files the security scan reads.
	MaxSecurityFiles int
}

// DefaultLimits returns the standard work ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxDiscoveryDepth: 3,
		MaxTreeDepth:      7,
		MaxFilesPerRepo:   80000,
		MaxFileBytes:      5_000_000,
		MaxSecurityFiles:  15000,
	}
}

// langExtensions maps each language bucket to its file extensions.
var langExtensions = map[string][]string{
	"Python":     {".py"},
	"Rust":       {".rs"},
	"TypeScript": {".ts", ".tsx"},
	"JavaScript": {".js", ".jsx", ".mjs"},
	"Nix":        {".nix"},
	"Go":         {".go"},
	"Solidity":   {".sol"},
	"Shell":      {".sh"},
	"YAML":       {".yaml", ".yml"},
	"TOML":       {".toml"},
	"JSON":       {".json"},
	"Markdown":   {".md"},
	"CSS":        {".css"},
	"HTML":       {".html"},
	"C":          {".c", ".h"},
	"C++":        {".cpp", ".hpp", ".cc", ".hh"},
	"Java":       {".java"},
	"Zig":        {".zig"},
	"Svelte":     {".svelte"},
}

// extToLang is the inverted extension lookup.
var extToLang = func() map[string]string {
	m := make(map[string]string)
	for lang, exts := range langExtensions {
		for _, ext := range exts {
			m[ext] = lang
		}
	}
	return m
}()

// fileExt returns the lowercased extension of path, dot included.
func fileExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// CodeStats is the result of classifying one repository's tree.
type CodeStats struct {
	TotalFiles      int
	TotalLOC        int
	Languages       map[string]LanguageStat
	PrimaryLanguage string
}

// CountCode walks the repo tree and buckets files by language, counting
// files and non-blank lines. Files are streamed line by line rather than
// read wholesale, so memory stays bounded regardless of file size.
func CountCode(repoPath string, lim Limits) CodeStats {
	stats := CodeStats{Languages: make(map[string]LanguageStat)}

	walkFiles(repoPath, lim, lim.MaxFilesPerRepo, func(path, rel string) {
		stats.TotalFiles++
		lang, ok := extToLang[fileExt(path)]
		if !ok {
			return
		}
		lines, err := countNonBlankLines(path)
		if err != nil {
			return
		}
		ls := stats.Languages[lang]
		ls.Files++
		ls.Lines += lines
		stats.Languages[lang] = ls
		stats.TotalLOC += lines
	})

	stats.PrimaryLanguage = primaryLanguage(stats.Languages)
	return stats
}

// primaryLanguage picks the bucket with the most lines; ties break by file
// count, then lexical order, so the result is deterministic.
func primaryLanguage(langs map[string]LanguageStat) string {
	best := ""
	for lang, ls := range langs {
		if best == "" {
			best = lang
			continue
		}
		b := langs[best]
		switch {
		case ls.Lines > b.Lines:
			best = lang
		case ls.Lines == b.Lines && ls.Files > b.Files:
			best = lang
		case ls.Lines == b.Lines && ls.Files == b.Files && lang < best:
			best = lang
		}
	}
	return best
}

// countNonBlankLines streams a file and counts lines containing at least one
// non-whitespace character.
func countNonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	count := 0
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			count++
		}
	}
	// A scan error (e.g. a line past the buffer cap) truncates the count
	// rather than failing the file.
	return count, nil
}

// walkFiles visits up to maxFiles regular files under root in sorted
// directory order, skipping hidden and noise directories and files larger
// than the byte ceiling. The visit order is deterministic, which keeps
// downstream findings and counts reproducible.
func walkFiles(root string, lim Limits, maxFiles int, fn func(path, rel string)) {
	visited := 0

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > lim.MaxTreeDepth || visited >= maxFiles {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if visited >= maxFiles {
				return
			}
			name := entry.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				continue
			}
			path := filepath.Join(dir, name)
			if entry.IsDir() {
				walk(path, depth+1)
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if lim.MaxFileBytes > 0 && info.Size() > lim.MaxFileBytes {
				continue
			}
			visited++
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			fn(path, rel)
		}
	}
	walk(root, 0)
}
