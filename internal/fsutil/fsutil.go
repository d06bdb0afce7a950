// Package fsutil puts the filesystem primitives used by the retrieval
// pipeline behind an interface so tests can observe or fail them.
package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// FS is the set of filesystem operations the pipeline performs.
type FS interface {
	Mkdir(path string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	MkdirTemp(dir, pattern string) (string, error)
	Create(path string) (io.WriteCloser, error)
	Rename(oldpath, newpath string) error
	Remove(path string) error
	RemoveAll(path string) error
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Chmod(path string, mode fs.FileMode) error
}

// osFS implements FS using package os.
type osFS struct{}

// OS returns the FS backed by the operating system.
func OS() FS {
	return osFS{}
}

func (osFS) Mkdir(path string, perm fs.FileMode) error {
	return os.Mkdir(path, perm)
}

func (osFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osFS) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (osFS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (osFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (osFS) Remove(path string) error {
	return os.Remove(path)
}

func (osFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (osFS) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (osFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (osFS) Chmod(path string, mode fs.FileMode) error {
	return os.Chmod(path, mode)
}

// AddExecutable adds the execute bit for user, group and other to path,
// keeping the other permission bits.
func AddExecutable(fsys FS, path string) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return err
	}
	return fsys.Chmod(path, info.Mode().Perm()|0o111)
}

// IgnoreExist returns nil for "already exists" errors and err otherwise.
func IgnoreExist(err error) error {
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	return err
}
