// Package toolchain runs the external compiler and template transpiler.
package toolchain

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// expand replaces the placeholders of a command template. A placeholder bound to a
// list expands to one argument per element and may only form a whole argument.
func expand(template []string, values map[string][]string) []string {
	args := make([]string, 0, len(template))
	for _, arg := range template {
		if vs, ok := values[arg]; ok {
			args = append(args, vs...)
			continue
		}
		for k, vs := range values {
			if len(vs) == 1 {
				arg = strings.ReplaceAll(arg, k, vs[0])
			}
		}
		args = append(args, arg)
	}
	return args
}

// run executes the command and returns its exit error, or a ToolchainUnavailableError
// when the executable cannot be started.
func run(ctx context.Context, cmd *exec.Cmd) error {
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return &domain.ToolchainUnavailableError{Toolchain: cmd.Args[0], Err: err}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return zerr.With(zerr.Wrap(err, domain.ErrToolchainFailed.Error()), "command", cmd.Args[0])
}

// problemLine matches "<file>:<line>[:<column>]: [error: |warning: ]<message>".
var problemLine = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*(?:(error|warning):\s*)?(.*)$`)

type problem struct {
	file    string
	line    int
	column  int
	warning bool
	message string
}

func parseProblems(output string) []problem {
	var problems []problem
	for l := range strings.Lines(output) {
		m := problemLine.FindStringSubmatch(strings.TrimRight(l, "\r\n"))
		if m == nil {
			continue
		}
		p := problem{file: m[1], warning: m[4] == "warning", message: m[5]}
		p.line, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			p.column, _ = strconv.Atoi(m[3])
		}
		problems = append(problems, p)
	}
	return problems
}
