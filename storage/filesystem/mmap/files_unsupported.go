//go:build !darwin && !linux

package mmap

import "github.com/go-git/go-billy/v5"

// Map is not available on this platform, Open falls back to reading files.
func Map(f billy.File) (Bytes, error) {
	return Bytes{}, ErrUnsupported
}
