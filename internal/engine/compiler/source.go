package compiler

import (
	"regexp"
	"strings"
)

var packageDecl = regexp.MustCompile(
	`(?m)^\s*package\s+[\p{L}\p{Sc}_][\p{L}\p{Sc}\p{N}_]*(\.[\p{L}\p{Sc}_][\p{L}\p{Sc}\p{N}_]*)*\s*;`,
)

// ensurePackage prepends a package declaration unless the source already has one.
func ensurePackage(source, pkg string) string {
	if pkg == "" || packageDecl.MatchString(source) {
		return source
	}
	var b strings.Builder
	b.Grow(len(source) + len(pkg) + 10)
	b.WriteString("package ")
	b.WriteString(pkg)
	b.WriteString(";\n")
	b.WriteString(source)
	return b.String()
}
