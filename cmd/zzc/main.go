// Package main implements the zzc CLI: init, clean, check, build, test,
// run and version, wiring internal/loader, internal/driver and
// internal/ui together into one build pipeline.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zzc",
	Short: "ZZ language compiler and build driver",
	Long:  "zzc compiles ZZ source modules to C (and a Rust binding shim) via a resolve/flatten/check/emit pipeline.",
}

func main() {
	rootCmd.Version = versionString()
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress the progress UI")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to collect")
	rootCmd.PersistentFlags().Bool("errors-as-json", false, "emit diagnostics as newline-delimited JSON instead of pretty text")
	rootCmd.PersistentFlags().Int("jobs", 0, "maximum concurrent module builds (0 = GOMAXPROCS)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeOf(err))
	}
}
