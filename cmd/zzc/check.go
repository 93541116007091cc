package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [artifact]",
	Short: "Run the pipeline through emission without invoking the toolchain",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := readBuildOptions(cmd, args)
	if err != nil {
		return err
	}
	result, _, _, err := runBuild(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checked %s: %d modules, no errors\n", result.Artifact.Name, len(result.Modules))
	return nil
}
