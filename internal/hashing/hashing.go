// Package hashing provides the deterministic content hash used for
// incremental-change detection across pipeline runs.
package hashing

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// HashData computes a content hash over an ordered sequence of strings.
// Each item is length-prefixed before hashing so that item boundaries
// contribute to the digest: ["ab","c"] and ["a","bc"] hash differently.
// Identical ordered inputs always yield identical output.
func HashData(items []string) string {
	hasher := blake3.New()

	var lenBuf [8]byte
	for _, item := range items {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(item)))
		_, _ = hasher.Write(lenBuf[:])
		_, _ = hasher.Write([]byte(item))
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// HashEmpty is the hash of no content, used for nodes that carry no
// data partition.
func HashEmpty() string {
	return HashData(nil)
}
