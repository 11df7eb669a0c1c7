package scanner

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

// ScanDependencies parses the recognized manifest files at the repo root
// into a flat, order-preserving list of declared dependency names. Names
// are prefixed by ecosystem (py:, npm:, npm-dev:, cargo:, go:). There is
// no version or transitive resolution; unparseable manifests are skipped
// silently.
func ScanDependencies(repoPath string) []string {
	var deps []string
	deps = append(deps, pyprojectDeps(filepath.Join(repoPath, "pyproject.toml"))...)
	deps = append(deps, packageJSONDeps(filepath.Join(repoPath, "package.json"))...)
	deps = append(deps, cargoDeps(filepath.Join(repoPath, "Cargo.toml"))...)
	deps = append(deps, goModDeps(filepath.Join(repoPath, "go.mod"))...)
	return deps
}

// pyprojectDeps reads both Poetry tables and PEP 621 project dependencies.
// toml.MetaData reports keys in source order, which keeps the list stable
// across scans.
func pyprojectDeps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil
	}

	var deps []string
	for _, req := range doc.Project.Dependencies {
		if name := requirementName(req); name != "" {
			deps = append(deps, "py:"+name)
		}
	}
	for _, key := range md.Keys() {
		if len(key) == 4 && key[0] == "tool" && key[1] == "poetry" && key[2] == "dependencies" {
			if key[3] != "python" {
				deps = append(deps, "py:"+key[3])
			}
		}
	}
	return deps
}

// requirementName strips the version specifier from a PEP 508 requirement
// string ("requests>=2.0" -> "requests").
func requirementName(req string) string {
	name := strings.TrimSpace(req)
	if i := strings.IndexAny(name, " <>=!~[;("); i >= 0 {
		name = name[:i]
	}
	return name
}

// packageJSONDeps extracts dependencies and devDependencies, preserving the
// manifest's key order via a token-level decode (a plain map unmarshal would
// randomize it).
func packageJSONDeps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var deps []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return deps
		}
		key, _ := keyTok.(string)
		switch key {
		case "dependencies":
			for _, name := range jsonObjectKeys(dec) {
				deps = append(deps, "npm:"+name)
			}
		case "devDependencies":
			for _, name := range jsonObjectKeys(dec) {
				deps = append(deps, "npm-dev:"+name)
			}
		default:
			if err := skipJSONValue(dec); err != nil {
				return deps
			}
		}
	}
	return deps
}

// jsonObjectKeys consumes the next JSON value; if it is an object, the keys
// are returned in source order.
func jsonObjectKeys(dec *json.Decoder) []string {
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '{' {
		// Not an object: the value token has already been consumed unless it
		// opened an array, which still needs draining.
		if ok && d == '[' {
			for dec.More() {
				if err := skipJSONValue(dec); err != nil {
					return nil
				}
			}
			_, _ = dec.Token()
		}
		return nil
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return keys
		}
		if key, ok := keyTok.(string); ok {
			keys = append(keys, key)
		}
		if err := skipJSONValue(dec); err != nil {
			return keys
		}
	}
	_, _ = dec.Token() // closing brace
	return keys
}

// skipJSONValue consumes one JSON value of any shape.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		for dec.More() {
			if err := skipJSONValue(dec); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	}
	return nil
}

// cargoDeps reads the [dependencies] table of a Cargo manifest.
func cargoDeps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil
	}

	var deps []string
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "dependencies" {
			deps = append(deps, "cargo:"+key[1])
		}
	}
	return deps
}

// goModDeps reads the require block of a go.mod file.
func goModDeps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil
	}

	var deps []string
	for _, req := range f.Require {
		deps = append(deps, "go:"+req.Mod.Path)
	}
	return deps
}
