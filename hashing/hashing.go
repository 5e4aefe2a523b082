// Package hashing turns identities into signed 64-bit routing keys.
package hashing

import (
	"github.com/OneOfOne/xxhash"
	"github.com/zeebo/xxh3"
)

// Key64 folds raw bytes into a signed 64-bit routing key using XXH3.
// The result is stable across processes and evenly spread, which is
// what lane routing needs; the sign is left to the caller to mask.
func Key64(data []byte) int64 {
	return int64(xxh3.Hash(data)) //nolint:gosec
}

// Key64String folds a string into a signed 64-bit routing key using xxHash64.
func Key64String(s string) int64 {
	return int64(xxhash.ChecksumString64(s)) //nolint:gosec
}
