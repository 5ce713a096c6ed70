// Package toolpath discovers a usable node interpreter and TypeScript
// compiler when the configured paths are wrong.
package toolpath

import (
	"os"
	"sync"
)

// Well-known installation locations, probed in order before falling back
// to the search path.
var (
	nodeCandidates = []string{
		"/usr/local/bin/node",
		"/usr/bin/node",
		"/opt/homebrew/bin/node",
	}
	compilerCandidates = []string{
		"/usr/local/share/npm/bin/tsc",
		"/usr/local/lib/node_modules/typescript/bin/tsc",
		"/usr/lib/node_modules/typescript/bin/tsc",
		"/opt/homebrew/lib/node_modules/typescript/bin/tsc",
	}
)

// Toolchain is the result of discovery. Empty fields were not found.
type Toolchain struct {
	Node     string
	Compiler string
}

// Complete reports whether both tools were found.
func (t Toolchain) Complete() bool {
	return t.Node != "" && t.Compiler != ""
}

var (
	detectOnce sync.Once
	detected   Toolchain
)

// statFile is the function used to inspect candidate paths.
// It can be overridden in tests for injection.
var statFile = os.Stat

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := statFile(path)
	return err == nil && info.Mode().Type() == 0
}

// IsExecutable reports whether path names a regular file with an
// execute bit set.
func IsExecutable(path string) bool {
	info, err := statFile(path)
	return err == nil && info.Mode().Type() == 0 && info.Mode().Perm()&0o111 != 0
}

func firstExisting(candidates []string, check func(string) bool) string {
	for _, c := range candidates {
		if check(c) {
			return c
		}
	}
	return ""
}

// detect performs the actual discovery. It is called once via sync.Once.
func detect() {
	detected.Node = firstExisting(nodeCandidates, IsExecutable)
	if detected.Node == "" {
		if p, err := Lookup("node"); err == nil {
			detected.Node = p
		}
	}

	// The compiler is a script run by node, so it only has to exist.
	detected.Compiler = firstExisting(compilerCandidates, Exists)
	if detected.Compiler == "" {
		if p, err := Lookup("tsc"); err == nil {
			detected.Compiler = p
		}
	}
}

// Detect returns the discovered toolchain.
// The result is cached after the first call.
func Detect() Toolchain {
	detectOnce.Do(detect)
	return detected
}

// resetDetection resets the detection state for testing purposes.
func resetDetection() {
	detectOnce = sync.Once{}
	detected = Toolchain{}
}
