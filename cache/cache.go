// Package cache stores compiled scripts on disk as CBOR blobs keyed
// by the SHA-256 of their source text, so repeated runs of an
// unchanged file skip recompilation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/nsprague/slisp/bytecode"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Key returns the cache key for a source text: the hex-encoded
// SHA-256 digest of its bytes.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func path(dir, key string) string {
	return filepath.Join(dir, key+".cbor")
}

// Load reads the cached compiled form of source from dir. It returns
// (nil, nil) on a cache miss, never an error for a missing entry.
func Load(dir, source string) (*bytecode.Script, error) {
	data, err := os.ReadFile(path(dir, Key(source)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: read: %w", err)
	}
	var script bytecode.Script
	if err := cbor.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("cache: corrupt entry: %w", err)
	}
	return &script, nil
}

// Store writes the compiled form of source to dir, creating dir if
// necessary.
func Store(dir, source string, script *bytecode.Script) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}
	data, err := cborEncMode.Marshal(script)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	if err := os.WriteFile(path(dir, Key(source)), data, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	return nil
}
