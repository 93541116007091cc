package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zzc/internal/project"
)

func writeFileAt(t *testing.T, path string, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func TestDiskCachePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "m.c")
	srcPath := filepath.Join(dir, "m.zz")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeFileAt(t, srcPath, "source", base)
	writeFileAt(t, outPath, "emitted", base.Add(time.Minute))

	dc := NewDiskCache()
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	desc := &ModuleDescriptor{
		ModuleName:     "m",
		SourcePaths:    []string{srcPath},
		SourceHashes:   []project.Digest{{1}},
		SourceModTimes: []int64{srcInfo.ModTime().UnixNano()},
		Header:         "typedef struct m {} m;",
		Impl:           "",
	}
	if err := dc.Put(outPath, desc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := dc.Get(outPath)
	if !ok {
		t.Fatal("Get reported a miss right after Put")
	}
	if got.Header != desc.Header || got.ModuleName != "m" {
		t.Errorf("Get = %+v, want Header/ModuleName to round-trip", got)
	}

	if !dc.Valid(got, outPath) {
		t.Error("Valid = false, want true: output is newer than its sole source")
	}
}

func TestDiskCacheInvalidatedBySourceNewerThanOutput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "m.c")
	srcPath := filepath.Join(dir, "m.zz")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeFileAt(t, outPath, "emitted", base)
	writeFileAt(t, srcPath, "changed source", base.Add(time.Minute))

	dc := NewDiskCache()
	srcInfo, _ := os.Stat(srcPath)
	desc := &ModuleDescriptor{
		ModuleName:     "m",
		SourcePaths:    []string{srcPath},
		SourceModTimes: []int64{srcInfo.ModTime().UnixNano()},
		Header:         "stale",
	}
	if err := dc.Put(outPath, desc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := dc.Get(outPath)
	if !ok {
		t.Fatal("Get reported a miss right after Put")
	}
	if dc.Valid(got, outPath) {
		t.Error("Valid = true, want false: source was modified after the cached output was written")
	}
}

func TestDiskCacheGetDeletesCorruptDescriptor(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "m.c")
	descPath := descriptorPath(outPath)
	if err := os.WriteFile(descPath, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dc := NewDiskCache()
	if _, ok := dc.Get(outPath); ok {
		t.Fatal("Get reported a hit for a corrupt descriptor")
	}
	if _, err := os.Stat(descPath); !os.IsNotExist(err) {
		t.Errorf("corrupt descriptor was not removed, Stat err = %v", err)
	}
}

func TestDiskCacheGetMissingIsNotAnError(t *testing.T) {
	dc := NewDiskCache()
	if _, ok := dc.Get(filepath.Join(t.TempDir(), "nope.c")); ok {
		t.Fatal("Get reported a hit for a path that was never Put")
	}
}

func TestIsSHA256RejectsZero(t *testing.T) {
	var zero project.Digest
	if IsSHA256(zero) {
		t.Error("IsSHA256(zero) = true, want false")
	}
	nonZero := project.Digest{1}
	if !IsSHA256(nonZero) {
		t.Error("IsSHA256(nonZero) = false, want true")
	}
}
