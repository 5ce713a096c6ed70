package toolpath

import (
	"fmt"
	"os/exec"
	"sync"
)

// pathCache memoizes search-path lookups to avoid repeated directory scans.
var pathCache sync.Map

// lookPath abstracts exec.LookPath for testability.
var lookPath = exec.LookPath

// Lookup resolves an executable name through the search path.
// Successful results are memoized.
func Lookup(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty executable name")
	}

	if cached, ok := pathCache.Load(name); ok {
		return cached.(string), nil
	}

	result, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("failed to find %q in PATH: %w", name, err)
	}

	pathCache.Store(name, result)
	return result, nil
}

// ClearCache clears the memoized lookups.
func ClearCache() {
	pathCache = sync.Map{}
}
