package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"zzc/internal/diag"
	"zzc/internal/source"
)

func TestPrettyRendersHeaderAndCaret(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("foo.zz", []byte("fn main() {\n    bogus();\n}\n"), 0)

	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CodeUnknownSymbol,
		Message:  "unknown symbol `bogus`",
		Primary:  source.Span{File: id, Start: 16, End: 21},
	})
	bag.Sort()

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})

	out := buf.String()
	if !strings.Contains(out, "foo.zz:2:5: ERROR UnknownSymbol: unknown symbol `bogus`") {
		t.Errorf("missing expected header, got:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("missing caret underline, got:\n%s", out)
	}
}

func TestJSONEncodesDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("foo.zz", []byte("x"), 0)

	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.CodeAmbiguous,
		Message:  "ambiguous import",
		Primary:  source.Span{File: id, Start: 0, End: 1},
	})

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"code":"Ambiguous"`) {
		t.Errorf("missing expected code field, got:\n%s", buf.String())
	}
}
