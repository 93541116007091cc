// Package diagfmt renders a diag.Bag for human consumption or as JSON:
// source excerpt, caret and suggestion slots for pretty output, or
// newline-delimited JSON when the ERRORS_AS_JSON toggle is set.
package diagfmt

// PathMode controls how a diagnostic's file path is displayed.
type PathMode uint8

const (
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color     bool
	Context   int // number of source lines shown around the primary span
	PathMode  PathMode
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures JSON.
type JSONOpts struct {
	PathMode         PathMode
	IncludePositions bool
	IncludeNotes     bool
	IncludeFixes     bool
	Max              int // 0 means unlimited
}
