package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Expand turns command-line arguments into trace paths. Directories are
// listed (not recursively) for *.sor files, and for *.json dumps when
// withDumps is set. Files named explicitly are kept as given. Repeated paths
// are dropped.
func Expand(args []string, withDumps bool) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		key := filepath.Clean(p)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoInput, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoInput, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || !wanted(e.Name(), withDumps) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, n := range names {
			add(filepath.Join(arg, n))
		}
	}

	if len(out) == 0 {
		return nil, ErrNoInput
	}
	return out, nil
}

func wanted(name string, withDumps bool) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sor":
		return true
	case ".json":
		return withDumps
	default:
		return false
	}
}
