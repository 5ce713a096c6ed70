package compile

import (
	"fmt"
	"strings"
)

// Kind is the interpretation of captured compiler output.
type Kind int

const (
	CleanOutput Kind = iota
	CompilerDiagnostics
	ToolMisconfigured
)

func (k Kind) String() string {
	switch k {
	case CleanOutput:
		return "clean"
	case CompilerDiagnostics:
		return "diagnostics"
	case ToolMisconfigured:
		return "misconfigured"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Patterns matched against compiler output.
const (
	compilerErrorPattern     = "TypeError"
	missingDependencyPattern = "Cannot find module"
)

// Preambles prepended to the compiler output shown to the user.
const (
	DiagnosticsPreamble   = "Your source contains errors\n\n"
	MisconfiguredPreamble = "The TypeScript compiler did not run correctly.\n" +
		"Check the node_path and typescript_path settings.\n\n"
)

// Result is classified compiler output.
type Result struct {
	Kind Kind
	Text string
}

// Classifier turns compiler output into a Result. destExists reports
// whether the destination file is on disk after the run.
type Classifier func(text string, destExists bool) Result

// Classify is the default Classifier. It relies on the text only, never
// the exit status; the first matching rule wins:
//
//  1. "TypeError" anywhere: CompilerDiagnostics.
//  2. "Cannot find module" anywhere, or no destination file: ToolMisconfigured.
//  3. Otherwise CleanOutput.
func Classify(text string, destExists bool) Result {
	switch {
	case strings.Contains(text, compilerErrorPattern):
		return Result{Kind: CompilerDiagnostics, Text: DiagnosticsPreamble + text}
	case strings.Contains(text, missingDependencyPattern) || !destExists:
		return Result{Kind: ToolMisconfigured, Text: MisconfiguredPreamble + text}
	default:
		return Result{Kind: CleanOutput, Text: text}
	}
}
