package domain

import "fmt"

// TemplateProblem is a warning or error reported by the template transpiler.
type TemplateProblem struct {
	ScriptName string
	Line       int
	Column     int
	Message    string
}

func (p TemplateProblem) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", p.ScriptName, p.Line, p.Column, p.Message)
}

// TranspileRequest asks the transpiler to turn a template into target-language source.
type TranspileRequest struct {
	ScriptName  string
	PackageName string
	ClassName   string
	Template    string
	// KnownOptions are the expression options the runtime understands.
	KnownOptions []string
}

// TranspileResult is the transpiler's answer.
type TranspileResult struct {
	Source   string
	Warnings []TemplateProblem
	Errors   []TemplateProblem
}
