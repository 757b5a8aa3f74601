package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// ErrPathNotFound is returned when an add/remove target does not exist
var ErrPathNotFound = errors.New("path not found")

// Enumerate resolves target into the concrete files it denotes under the
// policy. A file resolves to itself unless ignored, a directory to every
// non-ignored file below it. Results are absolute paths in lexical order.
func Enumerate(policy *IgnorePolicy, target string) ([]string, error) {
	abs := policy.Resolve(target)

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, target)
		}
		return nil, fmt.Errorf("failed to access %s: %w", target, err)
	}

	if !info.IsDir() {
		if policy.Ignored(abs, false) {
			return []string{}, nil
		}
		return []string{abs}, nil
	}

	if abs != policy.Root && policy.Ignored(abs, true) {
		return []string{}, nil
	}

	found := []string{}
	err = policy.Walk(abs, func(path string, d fs.DirEntry) error {
		if isFile(path, d) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", target, err)
	}

	sort.Strings(found)
	return found, nil
}

// EnumerateKeys is Enumerate with results converted to selection keys
func EnumerateKeys(policy *IgnorePolicy, target string) ([]string, error) {
	paths, err := Enumerate(policy, target)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, policy.Key(p))
	}
	sort.Strings(keys)
	return keys, nil
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}
