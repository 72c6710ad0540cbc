package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Transpiler = (*Transpiler)(nil)

// Placeholders understood in transpiler command templates.
const (
	PlaceholderName    = "{name}"
	PlaceholderPackage = "{package}"
	PlaceholderClass   = "{class}"
	PlaceholderOptions = "{options}"
)

// Transpiler runs an external template transpiler. The template is written to its
// standard input and the generated source is read from its standard output. Problems
// are reported on standard error, one per line.
type Transpiler struct {
	command []string
}

// NewTranspiler creates a transpiler running command.
func NewTranspiler(command []string) *Transpiler {
	return &Transpiler{command: command}
}

// Transpile implements ports.Transpiler.
func (t *Transpiler) Transpile(ctx context.Context, req domain.TranspileRequest) (domain.TranspileResult, error) {
	if len(t.command) == 0 {
		return domain.TranspileResult{}, &domain.ToolchainUnavailableError{
			Toolchain: "transpiler",
			Err:       zerr.New("no transpiler command configured"),
		}
	}

	args := expand(t.command, map[string][]string{
		PlaceholderName:    {req.ScriptName},
		PlaceholderPackage: {req.PackageName},
		PlaceholderClass:   {req.ClassName},
		PlaceholderOptions: {strings.Join(req.KnownOptions, ",")},
	})
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // configured transpiler
	cmd.Stdin = strings.NewReader(req.Template)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := run(ctx, cmd)
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return domain.TranspileResult{}, runErr
	}

	result := domain.TranspileResult{Source: stdout.String()}
	for _, p := range parseProblems(stderr.String()) {
		tp := domain.TemplateProblem{ScriptName: req.ScriptName, Line: p.line, Column: p.column, Message: p.message}
		if p.warning {
			result.Warnings = append(result.Warnings, tp)
		} else {
			result.Errors = append(result.Errors, tp)
		}
	}

	if runErr != nil && len(result.Errors) == 0 {
		return domain.TranspileResult{}, zerr.With(
			zerr.Wrap(runErr, domain.ErrTranspileFailed.Error()), "output", strings.TrimSpace(stderr.String()))
	}
	return result, nil
}
