package scanner

import (
	"bufio"
	"os"
	"regexp"
)

// securityRule is one pattern the scanner greps for. A file reports at most
// one finding per rule, so a config file full of placeholder tokens does not
// drown the snapshot.
type securityRule struct {
	Type    string
	Weight  int
	Pattern *regexp.Regexp
}

var securityRules = []securityRule{
	{
		Type:    "hardcoded_secret",
		Weight:  15,
		Pattern: regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|password|token)\s*[=:]\s*["'][A-Za-z0-9+/=_-]{20,}`),
	},
	{
		Type:    "unsafe_eval",
		Weight:  10,
		Pattern: regexp.MustCompile(`\b(eval|exec)\s*\(`),
	},
	{
		Type:    "shell_injection",
		Weight:  10,
		Pattern: regexp.MustCompile(`subprocess\.\w+\([^)]*shell\s*=\s*True`),
	},
	{
		Type:    "debug_artifact",
		Weight:  5,
		Pattern: regexp.MustCompile(`\b(pdb\.set_trace|breakpoint\(\)|debugger)\b`),
	},
}

// Extensions that map to a language but carry data or prose, not executable
// code. Secrets in these would be near-universal false positives.
var securitySkipExt = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
	".toml": {},
	".md":   {},
}

// ScanSecurity runs the fixed rule table over the repo's code files and
// returns the findings plus a score starting at 100 and docked per finding,
// floored at zero. The walk is bounded by lim.MaxSecurityFiles and follows
// the same deterministic order as the code counter, so identical trees yield
// identical findings.
func ScanSecurity(repoPath string, lim Limits) ([]SecurityFinding, int) {
	findings := []SecurityFinding{}
	score := 100

	walkFiles(repoPath, lim, lim.MaxSecurityFiles, func(path, rel string) {
		ext := fileExt(path)
		if _, ok := extToLang[ext]; !ok {
			return
		}
		if _, skip := securitySkipExt[ext]; skip {
			return
		}
		findings = append(findings, scanFile(path, rel)...)
	})

	for _, f := range findings {
		for _, r := range securityRules {
			if r.Type == f.Type {
				score -= r.Weight
				break
			}
		}
	}
	if score < 0 {
		score = 0
	}
	return findings, score
}

// scanFile streams one file line by line and records the first line matching
// each rule.
func scanFile(path, rel string) []SecurityFinding {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var findings []SecurityFinding
	seen := make(map[string]struct{}, len(securityRules))

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(seen) == len(securityRules) {
			break
		}
		text := sc.Text()
		for _, r := range securityRules {
			if _, done := seen[r.Type]; done {
				continue
			}
			if r.Pattern.MatchString(text) {
				seen[r.Type] = struct{}{}
				findings = append(findings, SecurityFinding{
					Type: r.Type,
					File: rel,
					Line: line,
				})
			}
		}
	}
	return findings
}
