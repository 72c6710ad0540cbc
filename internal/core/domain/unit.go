package domain

import "time"

// SourceUnit is a piece of generated target-language source submitted to the toolchain.
type SourceUnit struct {
	// Identifier is the fully qualified identifier of the unit.
	Identifier string
	// SourceName is the name reported in diagnostics, usually the content path of the script.
	SourceName string
	// Source is the target-language source text.
	Source string
}

// CompileOptions are passed verbatim to the toolchain.
type CompileOptions struct {
	GenerateDebugInfo bool
	ForceCompilation  bool
	SourceVersion     string
	TargetVersion     string
}

// CompileResult is what the toolchain reports for a submission.
type CompileResult struct {
	// Diagnostics holds every error reported by the toolchain. Empty on success.
	Diagnostics []Diagnostic
	// Artifacts maps artifact paths, relative to the store root, to their content.
	Artifacts map[string][]byte
	// DidCompile reports whether the toolchain actually produced output.
	DidCompile bool
}

// Artifact is the default loaded form of a compiled unit.
type Artifact struct {
	Identifier string
	Content    []byte
}

// CompiledUnit is an instantiated artifact owned by the compilation cache.
// It is replaced on recompilation and never mutated.
type CompiledUnit struct {
	Identifier string
	SourcePath string
	CompiledAt time.Time
	Checksum   uint64
	Instance   any
}
