package domain

import (
	"fmt"
	"strings"
)

// CodecError reports an input that cannot be mapped between paths and identifiers.
type CodecError struct {
	// Input is the path or identifier that was rejected.
	Input string
	// Err is the sentinel describing the rejection.
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Input, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Diagnostic is a single problem reported by the toolchain.
type Diagnostic struct {
	SourceName string
	Line       int
	Column     int
	Message    string
}

// String renders the diagnostic the way it appears in a compilation error.
func (d Diagnostic) String() string {
	return fmt.Sprintf("Line %d, column %d : %s", d.Line, d.Column, d.Message)
}

// DuplicateVariableHint is appended to a compilation error when the toolchain reports
// a duplicate local variable, which is what two identical unnamed blocks produce.
const DuplicateVariableHint = " Maybe you defined more than one identical block elements" +
	" without defining a different variable for each one?"

// CompilationError carries every diagnostic reported for a failed compilation.
type CompilationError struct {
	Identifier  string
	SourceName  string
	Diagnostics []Diagnostic
	Hint        string
}

func (e *CompilationError) Error() string {
	var b strings.Builder
	b.WriteString("Compilation errors in ")
	b.WriteString(e.SourceName)
	b.WriteString(":")
	b.WriteString(e.Hint)
	for _, d := range e.Diagnostics {
		b.WriteString("\n")
		b.WriteString(d.String())
	}
	return b.String()
}

// NewCompilationError builds a CompilationError, adding the duplicate variable hint when
// one of the diagnostics calls for it.
func NewCompilationError(identifier, sourceName string, diagnostics []Diagnostic) *CompilationError {
	e := &CompilationError{
		Identifier:  identifier,
		SourceName:  sourceName,
		Diagnostics: diagnostics,
	}
	for _, d := range diagnostics {
		if strings.Contains(d.Message, "Duplicate local variable") {
			e.Hint = DuplicateVariableHint
			break
		}
	}
	return e
}

// ToolchainUnavailableError reports that no toolchain could be invoked at all.
type ToolchainUnavailableError struct {
	Toolchain string
	Err       error
}

func (e *ToolchainUnavailableError) Error() string {
	return fmt.Sprintf("toolchain %q is unavailable: %v", e.Toolchain, e.Err)
}

func (e *ToolchainUnavailableError) Unwrap() error {
	return e.Err
}
