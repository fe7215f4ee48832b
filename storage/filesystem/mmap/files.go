//go:build darwin || linux

package mmap

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"golang.org/x/sys/unix"
)

// Map creates a read-only memory-mapped region for the given file. On
// success the file is owned by the returned Bytes and is closed along with
// the mapping.
//
// Empty files cannot be mapped, they yield an empty owned buffer and f is
// closed right away. If f exposes no file descriptor ErrNoFileDescriptor is
// returned and f is left open.
func Map(f billy.File) (Bytes, error) {
	if f == nil {
		return Bytes{}, ErrNilFile
	}

	fd, err := getFileDescriptor(f)
	if err != nil {
		return Bytes{}, err
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(fd), &st); err != nil {
		return Bytes{}, errors.CombineErrors(err, f.Close())
	}

	if st.Size == 0 {
		return Bytes{}, f.Close()
	}

	data, err := unix.Mmap(int(fd), 0, int(st.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return Bytes{}, errors.CombineErrors(err, f.Close())
	}

	cleanup := func() error {
		return errors.CombineErrors(
			unix.Munmap(data),
			f.Close(),
		)
	}

	return Bytes{data: data, cleanup: cleanup}, nil
}

// getFileDescriptor extracts the file descriptor from a billy.File.
func getFileDescriptor(f billy.File) (uintptr, error) {
	if ffd, ok := f.(billyFileDescriptor); ok {
		if v, ok := ffd.Fd(); ok {
			return v, nil
		}
	}
	if ffd, ok := f.(goFileDescriptor); ok {
		return ffd.Fd(), nil
	}
	return 0, ErrNoFileDescriptor
}

// billyFileDescriptor represents the Fd interface for billy.File.
type billyFileDescriptor interface {
	Fd() (uintptr, bool)
}

// goFileDescriptor represents the Fd interface for os.File. This is
// needed as os.File can be used interchangeably with billy.File, however
// not all implementations of the latter support Fd - hence the distinct
// signatures.
type goFileDescriptor interface {
	Fd() uintptr
}
