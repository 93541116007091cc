package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about how a source file was loaded.
	FileFlags uint8
)

const (
	// FileVirtual marks a file added from memory (test fixture, stdin) rather than disk.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM records that a UTF-8 byte-order mark was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF records that CRLF line endings were normalized to LF on load.
	FileNormalizedCRLF
)

// File holds metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based human-readable position within a source file.
type LineCol struct {
	Line uint32
	Col  uint32
}
