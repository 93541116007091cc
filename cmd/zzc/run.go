package main

import (
	"context"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [artifact] [-- <program-args>...]",
	Short: "Build an exe artifact and execute it",
	Long:  `Build and execute a ZZ program. Arguments after "--" are forwarded to the produced binary.`,
	Args:  cobra.ArbitraryArgs,
	RunE:  runRunCmd,
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	before, after := splitArgsAtDash(cmd, args)
	opts, err := readBuildOptions(cmd, before)
	if err != nil {
		return err
	}
	opts.withToolchain = true

	result, _, _, err := runBuild(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return execArtifact(cmd.Context(), result.OutputPath, after)
}

// splitArgsAtDash separates positional args from the program args cobra
// hands after a literal "--".
func splitArgsAtDash(cmd *cobra.Command, args []string) (before, after []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func execArtifact(ctx context.Context, path string, programArgs []string) error {
	c := exec.CommandContext(ctx, path, programArgs...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
