package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [artifact]",
	Short: "Build a ZZ project artifact",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuildCmd,
}

func runBuildCmd(cmd *cobra.Command, args []string) error {
	opts, err := readBuildOptions(cmd, args)
	if err != nil {
		return err
	}
	opts.withToolchain = true
	result, _, root, err := runBuild(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", formatRelative(root, result.OutputPath))
	return nil
}
