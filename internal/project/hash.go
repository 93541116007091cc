package project

import "crypto/sha256"

// Digest is a fixed 256-bit hash, compatible with source.File.Hash.
type Digest [32]byte

// Combine builds a module hash H(content || dep1 || dep2 || ...). The
// caller must pass deps in a deterministic order (the dag package's edge
// lists are kept sorted) so the result is reproducible across runs (spec
// §8 property 4, determinism).
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	h.Write(content[:]) //nolint:errcheck // hash.Hash.Write never errors
	for _, d := range deps {
		h.Write(d[:]) //nolint:errcheck
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
