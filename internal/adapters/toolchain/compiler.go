package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Toolchain = (*Compiler)(nil)

// Placeholders understood in compiler command templates.
const (
	PlaceholderSources = "{src}"
	PlaceholderOutput  = "{out}"
	PlaceholderSource  = "{source}"
	PlaceholderTarget  = "{target}"
)

// Compiler runs an external compiler. Sources are written to a scratch directory and every
// file the command leaves in the output directory is returned as an artifact.
type Compiler struct {
	command   []string
	extension string
}

// NewCompiler creates a compiler running command. Sources are written with extension.
func NewCompiler(command []string, extension string) *Compiler {
	return &Compiler{command: command, extension: extension}
}

// Compile implements ports.Toolchain.
func (c *Compiler) Compile(
	ctx context.Context,
	units []domain.SourceUnit,
	opts domain.CompileOptions,
) (domain.CompileResult, error) {
	if len(c.command) == 0 {
		return domain.CompileResult{}, &domain.ToolchainUnavailableError{
			Toolchain: "compiler",
			Err:       zerr.New("no toolchain command configured"),
		}
	}

	work, err := os.MkdirTemp("", "stencil-compile-")
	if err != nil {
		return domain.CompileResult{}, zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}
	defer func() { _ = os.RemoveAll(work) }()

	srcDir, outDir := filepath.Join(work, "src"), filepath.Join(work, "out")
	files := make([]string, 0, len(units))
	names := make(map[string]string, len(units))
	for _, u := range units {
		f := filepath.Join(srcDir, filepath.FromSlash(strings.ReplaceAll(u.Identifier, ".", "/"))+c.extension)
		if err := writeFile(f, []byte(u.Source)); err != nil {
			return domain.CompileResult{}, err
		}
		files = append(files, f)
		names[f] = u.SourceName
	}
	if err := os.MkdirAll(outDir, domain.DirPerm); err != nil {
		return domain.CompileResult{}, zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}

	args := expand(c.command, map[string][]string{
		PlaceholderSources: files,
		PlaceholderOutput:  {outDir},
		PlaceholderSource:  {opts.SourceVersion},
		PlaceholderTarget:  {opts.TargetVersion},
	})
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // configured toolchain
	cmd.Dir = work
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := run(ctx, cmd); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return domain.CompileResult{}, err
		}
		diags := diagnostics(output.String(), names)
		if len(diags) == 0 {
			return domain.CompileResult{}, zerr.With(
				zerr.Wrap(err, domain.ErrToolchainFailed.Error()), "output", strings.TrimSpace(output.String()))
		}
		return domain.CompileResult{Diagnostics: diags}, nil
	}

	artifacts, err := collect(outDir)
	if err != nil {
		return domain.CompileResult{}, err
	}
	return domain.CompileResult{Artifacts: artifacts, DidCompile: len(artifacts) > 0}, nil
}

func diagnostics(output string, names map[string]string) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, p := range parseProblems(output) {
		if p.warning {
			continue
		}
		name, ok := names[p.file]
		if !ok {
			continue
		}
		diags = append(diags, domain.Diagnostic{SourceName: name, Line: p.line, Column: p.column, Message: p.message})
	}
	return diags
}

func collect(outDir string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)
	err := filepath.WalkDir(outDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p) //nolint:gosec // below the scratch directory
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outDir, p)
		if err != nil {
			return err
		}
		artifacts[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}
	return artifacts, nil
}

func writeFile(p string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}
	if err := os.WriteFile(p, content, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}
	return nil
}
