// SPDX-License-Identifier: MPL-2.0

package stylesheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultEntries are the stylesheets a storefront theme compiles.
var DefaultEntries = []string{"css/styles-m.less", "css/styles-l.less"}

// ErrCompileFailed is the sentinel error wrapped by CompileError.
var ErrCompileFailed = errors.New("stylesheet compilation failed")

type (
	// Compiler compiles entry, a final path inside the deployed directory
	// outDir, into its .css sibling.
	Compiler interface {
		Compile(ctx context.Context, outDir, entry string) error
	}

	// ExecCompiler runs an external compiler as
	//
	//	<Command...> <outDir>/<entry> <outDir>/<entry without .less>.css
	//
	// with outDir as working directory.
	ExecCompiler struct {
		Command []string
		// Env is appended to the current environment.
		Env []string
	}

	// CompileError carries the compiler's output.
	CompileError struct {
		Entry    string
		ExitCode int
		Output   string
		Err      error
	}
)

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("compile %s: %v", e.Entry, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns ErrCompileFailed and the underlying error.
func (e *CompileError) Unwrap() []error { return []error{ErrCompileFailed, e.Err} }

// NewExecCompiler splits a command line such as "lessc --source-map".
func NewExecCompiler(commandLine string) (*ExecCompiler, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("empty stylesheet compiler command")
	}
	return &ExecCompiler{Command: fields}, nil
}

// CSSPath returns the output path for a .less entry.
func CSSPath(entry string) string {
	return strings.TrimSuffix(entry, Extension) + ".css"
}

// Compile implements Compiler.
func (c *ExecCompiler) Compile(ctx context.Context, outDir, entry string) error {
	if len(c.Command) == 0 {
		return errors.New("empty stylesheet compiler command")
	}
	src := filepath.Join(outDir, filepath.FromSlash(entry))
	dst := filepath.Join(outDir, filepath.FromSlash(CSSPath(entry)))

	args := append(append([]string{}, c.Command[1:]...), src, dst)
	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	cmd.Dir = outDir
	cmd.Env = append(os.Environ(), c.Env...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		ce := &CompileError{Entry: entry, Output: out.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ce.ExitCode = exitErr.ExitCode()
		}
		return ce
	}
	return nil
}
