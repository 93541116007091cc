package driver

import (
	"context"
	"os/exec"
)

// Toolchain accumulates the inputs the C/Rust compiler eventually needs and
// drives the actual invocation. Grounded on original_source/src/make.rs's
// Make::build/Make::cobject/Make::link, but narrowed to the two operations
// the Driver actually performs: compiling one translation unit and linking
// the set of object files into the artifact. Driving the compiler's own
// flag selection, target triples or cross-compilation setup is out of
// scope; Toolchain only wraps the exec.Cmd boundary.
type Toolchain interface {
	Compile(ctx context.Context, sourcePath string, flags []string) error
	Link(ctx context.Context, objectPaths []string, outputPath string, flags []string) error
}

// ExecToolchain shells out to a real C compiler. CC defaults to "cc" when
// empty, matching the original's reliance on $CC / a sane PATH default.
type ExecToolchain struct {
	CC    string
	Flags []string
}

func (t ExecToolchain) cc() string {
	if t.CC == "" {
		return "cc"
	}
	return t.CC
}

func (t ExecToolchain) Compile(ctx context.Context, sourcePath string, flags []string) error {
	args := append(append([]string{}, t.Flags...), flags...)
	args = append(args, "-c", sourcePath)
	cmd := exec.CommandContext(ctx, t.cc(), args...)
	return cmd.Run()
}

func (t ExecToolchain) Link(ctx context.Context, objectPaths []string, outputPath string, flags []string) error {
	args := append(append([]string{}, t.Flags...), flags...)
	args = append(args, objectPaths...)
	args = append(args, "-o", outputPath)
	cmd := exec.CommandContext(ctx, t.cc(), args...)
	return cmd.Run()
}

// RecordingToolchain never shells out; it just remembers what it was asked
// to do, for tests that must stop short of invoking a real compiler.
type RecordingToolchain struct {
	Compiled []string
	Linked   []string
}

func (t *RecordingToolchain) Compile(_ context.Context, sourcePath string, _ []string) error {
	t.Compiled = append(t.Compiled, sourcePath)
	return nil
}

func (t *RecordingToolchain) Link(_ context.Context, objectPaths []string, outputPath string, _ []string) error {
	t.Linked = append(t.Linked, outputPath)
	return nil
}
