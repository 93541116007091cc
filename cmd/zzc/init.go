package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a new ZZ project",
	Long: `Initialize a new ZZ project by creating a project manifest (zz.toml)
and a hello-world entry point (src/main.source). If [path] is omitted,
initializes the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target, err := resolveInitTarget(args)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	projectName := strings.TrimSpace(filepath.Base(target))
	if projectName == "" || projectName == "." || projectName == string(filepath.Separator) {
		projectName = "zz-project"
	}

	manifestPath := filepath.Join(target, "zz.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(projectName)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	mainPath := filepath.Join(target, "src", "main.source")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(mainPath), 0o755); err != nil {
			return fmt.Errorf("failed to create src directory: %w", err)
		}
		if err := os.WriteFile(mainPath, []byte(defaultMainSource()), 0o600); err != nil {
			return fmt.Errorf("failed to write src/main.source: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized zzc project in %s\n", rel)
	fmt.Fprintln(cmd.OutOrStdout(), "  - zz.toml")
	if createdMain {
		fmt.Fprintln(cmd.OutOrStdout(), "  - src/main.source")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "  - src/main.source (existing)")
	}
	return nil
}

func resolveInitTarget(args []string) (string, error) {
	if len(args) == 0 || args[0] == "." {
		return os.Getwd()
	}
	arg := args[0]
	if filepath.IsAbs(arg) {
		return arg, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, arg), nil
}

func defaultManifest(name string) string {
	return fmt.Sprintf(`# zzc project manifest
[package]
name = "%s"

[[artifacts]]
name = "%s"
main = "%s::main"
type = "exe"
`, name, name, name)
}

func defaultMainSource() string {
	return `// placeholder entry point; the grammar frontend that would parse this
// file is an external collaborator not carried by this build.
export fn main() {
}
`
}
