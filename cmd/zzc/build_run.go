package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"zzc/internal/cache"
	"zzc/internal/diag"
	"zzc/internal/diagfmt"
	"zzc/internal/driver"
	"zzc/internal/loader"
	"zzc/internal/name"
	"zzc/internal/project"
	"zzc/internal/source"
	"zzc/internal/ui"
)

// buildOptions gathers the persistent flags every build-shaped subcommand
// (check/build/test/run) shares.
type buildOptions struct {
	artifact       string
	maxDiagnostics int
	color          string
	quiet          bool
	errorsAsJSON   bool
	jobs           int
	withToolchain  bool
}

func readBuildOptions(cmd *cobra.Command, args []string) (buildOptions, error) {
	opts := buildOptions{}
	if len(args) > 0 {
		opts.artifact = args[0]
	}
	var err error
	if opts.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opts, err
	}
	if opts.color, err = cmd.Root().PersistentFlags().GetString("color"); err != nil {
		return opts, err
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.errorsAsJSON, err = cmd.Root().PersistentFlags().GetBool("errors-as-json"); err != nil {
		return opts, err
	}
	if opts.jobs, err = cmd.Root().PersistentFlags().GetInt("jobs"); err != nil {
		return opts, err
	}
	return opts, nil
}

// runBuild discovers the project, loads its modules and drives the Pipeline
// for one artifact, optionally through the progress UI.
func runBuild(ctx context.Context, opts buildOptions) (*driver.BuildResult, *project.Manifest, string, error) {
	_, root, manifest, err := locateManifest(".")
	if err != nil {
		return nil, nil, "", err
	}
	artifact, err := resolveArtifact(manifest, opts.artifact)
	if err != nil {
		return nil, manifest, root, err
	}

	fs := source.NewFileSetWithBase(root)
	tbl := name.NewTable()
	set, err := loader.LoadProject(fs, tbl, manifest.Package.Name, root, manifest, frontendParse)
	if err != nil {
		return nil, manifest, root, err
	}
	logf(logDebug, "loaded %d modules for %s from %s", len(set.Modules), artifact.Name, root)

	bag := diag.NewBag(opts.maxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	outDir := filepath.Join(root, "target", artifact.Name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, manifest, root, err
	}

	var toolchain driver.Toolchain
	if opts.withToolchain {
		toolchain = &driver.ExecToolchain{}
	}

	p := &driver.Pipeline{
		Tbl:         set.Table,
		Modules:     set.Modules,
		Manifest:    manifest,
		SourceDir:   root,
		OutDir:      outDir,
		Jobs:        opts.jobs,
		ModuleCache: cache.NewModuleCache(len(set.Modules)),
		DiskCache:   cache.NewDiskCache(),
		Toolchain:   toolchain,
	}

	var (
		result   *driver.BuildResult
		buildErr error
	)
	if opts.quiet || opts.errorsAsJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		result, buildErr = p.Build(ctx, rep, artifact.Name)
	} else {
		result, buildErr = runBuildWithUI(ctx, p, rep, artifact, set)
	}

	renderDiagnostics(bag, fs, opts)
	logf(logInfo, "%s: %d diagnostics", artifact.Name, bag.Len())

	if buildErr != nil {
		return result, manifest, root, buildErr
	}
	if bag.HasErrors() {
		err := fmt.Errorf("zzc: %s: build failed with diagnostics", artifact.Name)
		return result, manifest, root, withExitCode(bag.ExitCode(), err)
	}
	return result, manifest, root, nil
}

// runBuildWithUI drives Pipeline.Build on a background goroutine while a
// bubbletea progress model renders its Event stream.
func runBuildWithUI(ctx context.Context, p *driver.Pipeline, rep diag.Reporter, artifact *project.Artifact, set *loader.Set) (*driver.BuildResult, error) {
	events := make(chan driver.Event, 256)
	p.Events = events

	names := make([]string, 0, len(set.Modules))
	for _, mod := range set.Modules {
		names = append(names, mod.AbsName.HumanName())
	}

	type outcome struct {
		result *driver.BuildResult
		err    error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		res, err := p.Build(ctx, rep, artifact.Name)
		outcomeCh <- outcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(fmt.Sprintf("build %s", artifact.Name), names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	out := <-outcomeCh
	if uiErr != nil && out.err == nil {
		return out.result, uiErr
	}
	return out.result, out.err
}

func renderDiagnostics(bag *diag.Bag, fs *source.FileSet, opts buildOptions) {
	bag.Sort()
	if bag.Len() == 0 {
		return
	}
	if opts.errorsAsJSON {
		_ = diagfmt.JSON(os.Stderr, bag, fs, diagfmt.JSONOpts{IncludeNotes: true, IncludeFixes: true})
		return
	}
	color := opts.color == "on" || (opts.color != "off" && term.IsTerminal(int(os.Stderr.Fd())))
	diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: color, Context: 1, ShowNotes: true, ShowFixes: true})
}
