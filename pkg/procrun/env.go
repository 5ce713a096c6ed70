package procrun

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// searchPathEnv is the environment variable consulted for the
// "executable not found" diagnostic.
const searchPathEnv = "PATH"

// getenv is the function used to read environment variables.
// It can be overridden in tests for injection.
var getenv = os.Getenv

// SearchPath returns the current executable search path.
func SearchPath() string {
	return getenv(searchPathEnv)
}

// notFoundReason builds the user-facing message for a missing executable.
func notFoundReason(executable, hint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s could not be found in PATH", executable)
	if hint != "" {
		b.WriteString("\n\n")
		b.WriteString(hint)
	}
	fmt.Fprintf(&b, "\n\nPATH is: %s", SearchPath())
	return b.String()
}

// missingInterpreterReason explains an ENOENT from starting an executable
// that is itself present, which happens when its "#!" interpreter is
// missing. ok is false when the executable really is absent.
func missingInterpreterReason(executable, hint string) (reason string, ok bool) {
	if !strings.ContainsRune(executable, filepath.Separator) {
		return "", false
	}
	if _, err := os.Stat(executable); err != nil {
		return "", false
	}

	var b strings.Builder
	if interp := interpreterOf(executable); interp != "" {
		fmt.Fprintf(&b, "%s could not be started: its interpreter %s could not be found", executable, interp)
	} else {
		fmt.Fprintf(&b, "%s could not be started: a file it needs could not be found", executable)
	}
	if hint != "" {
		b.WriteString("\n\n")
		b.WriteString(hint)
	}
	return b.String(), true
}

// interpreterOf returns the program named on the "#!" line of path, or ""
// when there is none.
func interpreterOf(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	rest, ok := strings.CutPrefix(line, "#!")
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// PrepareEnv builds the environment slice for a command.
// It starts from the current process environment and appends the given
// variables in sorted key order. A nil result means "inherit".
func PrepareEnv(vars map[string]string) []string {
	if len(vars) == 0 {
		return nil
	}

	// Sort keys for deterministic output.
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return env
}
