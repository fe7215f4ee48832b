// Package filesystem is a storage backend based on billy filesystems. It
// gives revlogs read access to the files of a store directory, memory
// mapping them when possible.
package filesystem

import (
	"io"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/go-hg/go-hg/storage/filesystem/mmap"
)

// Options holds configuration for the storage.
type Options struct {
	// UseMmap maps files into memory instead of reading them, when the
	// platform and the filesystem allow it.
	UseMmap bool
}

// Storage is a read-mostly view over a store directory, such as
// `.hg/store`, where paths are relative to that directory.
type Storage struct {
	fs      billy.Filesystem
	options Options
}

// NewStorage returns a new Storage backed by a given billy.Filesystem.
func NewStorage(fs billy.Filesystem, o Options) *Storage {
	return &Storage{fs: fs, options: o}
}

// Filesystem returns the underlying filesystem.
func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}

// Options returns the storage options.
func (s *Storage) Options() Options {
	return s.options
}

// Read returns the whole content of the file at p.
func (s *Storage) Read(p string) ([]byte, error) {
	f, err := s.fs.Open(p)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(f)
	return data, errors.CombineErrors(err, f.Close())
}

// ReadIfExists is like Read but reports a missing file with a false boolean
// instead of an error.
func (s *Storage) ReadIfExists(p string) ([]byte, bool, error) {
	data, err := s.Read(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}

	return data, err == nil, err
}

// Open returns the content of the file at p, memory mapped if the storage
// is configured to do so.
func (s *Storage) Open(p string) (mmap.Bytes, error) {
	f, err := s.fs.Open(p)
	if err != nil {
		return mmap.Bytes{}, err
	}

	return mmap.Open(f, s.options.UseMmap)
}

// OpenIfExists is like Open but reports a missing file with a false boolean
// instead of an error.
func (s *Storage) OpenIfExists(p string) (mmap.Bytes, bool, error) {
	b, err := s.Open(p)
	if os.IsNotExist(err) {
		return mmap.Bytes{}, false, nil
	}

	return b, err == nil, err
}

// Append appends data to the file at p, creating it if needed.
func (s *Storage) Append(p string, data []byte) (err error) {
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, f.Close())
	}()

	_, err = f.Write(data)
	return err
}

// WriteFrom writes data to the file p starting at offset off, creating the
// file if needed. Anything stored past off is discarded first.
func (s *Storage) WriteFrom(p string, off int64, data []byte) (err error) {
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, f.Close())
	}()

	if err := f.Truncate(off); err != nil {
		return errors.Wrapf(err, "truncating %s at %d", p, off)
	}

	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return err
	}

	_, err = f.Write(data)
	return err
}

// WriteAtomic replaces the file at p with data through a temporary file
// renamed over it, so that readers see either the old or the new content.
func (s *Storage) WriteAtomic(p string, data []byte) error {
	dir := path.Dir(p)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := util.TempFile(s.fs, dir, "tmp_"+path.Base(p))
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return errors.CombineErrors(err, tmp.Close())
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return s.fs.Rename(tmp.Name(), p)
}

// Remove deletes the file at p. A missing file is not an error.
func (s *Storage) Remove(p string) error {
	err := s.fs.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
