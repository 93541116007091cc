// Package cache implements the two build-cache layers used by the
// Driver: a per-module on-disk descriptor holding the emitted C text
// (following original_source/src/pipeline.rs's to_buildcache/
// from_buildcache, which round-trips the emitter's CFile through
// rmp_serde), and a process-wide in-memory module cache.
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"zzc/internal/project"
)

// descriptorSchema bumps whenever ModuleDescriptor's shape changes, so a
// cache written by an older build is never misread as a hit.
const descriptorSchema uint16 = 1

// ModuleDescriptor is the on-disk cached form of one module's C emission:
// enough of the rendered header/impl text to skip re-running cbackend.Emit,
// plus the source inputs it was built from so staleness can be detected
// without re-parsing anything.
type ModuleDescriptor struct {
	Schema uint16

	ModuleName string

	SourcePaths    []string
	SourceHashes   []project.Digest
	SourceModTimes []int64 // unix nanoseconds, one per SourcePaths entry

	ContentHash    project.Digest
	DependencyHash project.Digest

	Broken bool

	Header string
	Impl   string
}

// DiskCache stores one ModuleDescriptor per emitted module, next to its
// output file as "<output>.buildcache" — the same naming pipeline.rs's
// to_buildcache/from_buildcache use, rather than a content-hash-keyed
// "mods/<hex>.mp" layout (our descriptor is always addressed by the
// output path it backs, so the hash isn't needed as a lookup key).
type DiskCache struct {
	mu sync.RWMutex
}

// NewDiskCache returns a ready DiskCache. There's no single app-wide
// directory to create: every descriptor lives beside the output file it
// caches, inside whatever target directory the Driver already created
// for that artifact.
func NewDiskCache() *DiskCache {
	return &DiskCache{}
}

func descriptorPath(outputPath string) string {
	return outputPath + ".buildcache"
}

// Put writes desc to outputPath's descriptor file atomically (temp file +
// rename), matching pipeline.rs::to_buildcache.
func (c *DiskCache) Put(outputPath string, desc *ModuleDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	desc.Schema = descriptorSchema
	p := descriptorPath(outputPath)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "buildcache-*")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup after a successful rename

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(desc); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

// Get reads outputPath's descriptor. A decode failure deletes the
// descriptor and reports a miss rather than propagating the error — a
// corrupt cache file should never block a build, matching
// pipeline.rs::from_buildcache's explicit remove_file on a bad decode.
func (c *DiskCache) Get(outputPath string) (*ModuleDescriptor, bool) {
	c.mu.RLock()
	p := descriptorPath(outputPath)
	f, err := os.Open(p)
	c.mu.RUnlock()
	if err != nil {
		return nil, false
	}
	defer f.Close() //nolint:errcheck

	var desc ModuleDescriptor
	if err := msgpack.NewDecoder(f).Decode(&desc); err != nil {
		c.mu.Lock()
		os.Remove(p) //nolint:errcheck // the file is unreadable either way
		c.mu.Unlock()
		return nil, false
	}
	if desc.Schema != descriptorSchema {
		return nil, false
	}
	return &desc, true
}

// Valid reports whether desc is still usable for outputPath: every file it
// was built from must still exist with its recorded modification time, and neither
// outputPath nor its descriptor may be older than the newest of those
// source files — the same not-stale condition as
// pipeline.rs::from_buildcache's `!is_newer_than(&outname) &&
// !is_newer_than(&cachename)` (there "newer" means "the source changed
// after this was last emitted").
func (c *DiskCache) Valid(desc *ModuleDescriptor, outputPath string) bool {
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return false
	}
	cacheInfo, err := os.Stat(descriptorPath(outputPath))
	if err != nil {
		return false
	}

	for i, srcPath := range desc.SourcePaths {
		info, err := os.Stat(srcPath)
		if err != nil {
			return false
		}
		recorded := time.Unix(0, desc.SourceModTimes[i])
		if !info.ModTime().Equal(recorded) {
			return false
		}
		if info.ModTime().After(outInfo.ModTime()) || info.ModTime().After(cacheInfo.ModTime()) {
			return false
		}
	}
	return true
}

// IsSHA256 reports whether d looks like a populated digest rather than a
// zero value.
func IsSHA256(d project.Digest) bool {
	var zero project.Digest
	return d != zero
}
