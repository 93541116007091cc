package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"zzc/internal/project"
)

var testCmd = &cobra.Command{
	Use:   "test [artifact]",
	Short: "Build a test artifact and run it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTestCmd,
}

func runTestCmd(cmd *cobra.Command, args []string) error {
	opts, err := readBuildOptions(cmd, args)
	if err != nil {
		return err
	}
	opts.withToolchain = true

	result, manifest, _, err := runBuild(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if art := manifest.ArtifactByName(result.Artifact.Name); art != nil && art.Type != project.ArtifactTest {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s is not declared type=\"test\"\n", result.Artifact.Name)
	}
	if err := execArtifact(cmd.Context(), result.OutputPath, nil); err != nil {
		return withExitCode(10, err)
	}
	return nil
}
