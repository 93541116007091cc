package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zzc/internal/version"
)

var (
	versionFormat   string
	versionShowHash bool
	versionShowDate bool

	commitColor  = color.New(color.FgRed, color.Bold)
	dateColor    = color.New(color.FgCyan, color.Bold)
	unknownColor = color.New(color.FgMagenta)
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show zzc build fingerprints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format := strings.ToLower(strings.TrimSpace(versionFormat))
		switch format {
		case "pretty", "json":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
		if format == "json" {
			return renderVersionJSON(cmd.OutOrStdout())
		}
		renderVersionPretty(cmd.OutOrStdout())
		return nil
	},
}

func versionString() string {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		return "dev"
	}
	return v
}

func renderVersionPretty(out io.Writer) {
	fmt.Fprintf(out, "zzc %s\n", versionString())
	if versionShowHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(version.GitCommit, commitColor))
	}
	if versionShowDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(version.BuildDate, dateColor))
	}
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func renderVersionJSON(out io.Writer) error {
	payload := versionPayload{Tool: "zzc", Version: versionString()}
	if versionShowHash {
		payload.GitCommit = strings.TrimSpace(version.GitCommit)
	}
	if versionShowDate {
		payload.BuildDate = strings.TrimSpace(version.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string, col *color.Color) string {
	if strings.TrimSpace(s) == "" {
		return unknownColor.Sprint("unknown")
	}
	return col.Sprint(s)
}
