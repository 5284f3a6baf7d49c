// Package filesystem implements storagedriver.StorageDriver on top of a
// local directory tree, every path a subpath of a configured root.
package filesystem

import (
	"io"
	"io/ioutil"
	"os"
	"path"

	"github.com/forgepkg/forge/storagedriver"
)

const defaultRootDirectory = "/var/lib/forge"

// Driver is a storagedriver.StorageDriver implementation backed by a
// local filesystem. All provided paths are subpaths of rootDirectory.
type Driver struct {
	rootDirectory string
}

// FromParameters constructs a Driver from a config-style parameter map.
// Recognized key: "rootdirectory".
func FromParameters(parameters map[string]string) *Driver {
	rootDirectory := defaultRootDirectory
	if parameters != nil {
		if rootDir, ok := parameters["rootdirectory"]; ok {
			rootDirectory = rootDir
		}
	}
	return New(rootDirectory)
}

// New constructs a Driver rooted at rootDirectory.
func New(rootDirectory string) *Driver {
	return &Driver{rootDirectory: rootDirectory}
}

func (d *Driver) subPath(subPath string) string {
	return path.Join(d.rootDirectory, subPath)
}

var _ storagedriver.StorageDriver = (*Driver)(nil)
var _ storagedriver.LocalPathResolver = (*Driver)(nil)

// LocalPath exposes subPath's real on-disk location, satisfying
// storagedriver.LocalPathResolver for callers (the renderer) that need to
// hard-link directly against the backing store rather than go through
// GetContent/PutContent.
func (d *Driver) LocalPath(subPath string) (string, bool) {
	return d.subPath(subPath), true
}

// GetContent retrieves the content stored at "path" as a []byte.
func (d *Driver) GetContent(subPath string) ([]byte, error) {
	contents, err := ioutil.ReadFile(d.subPath(subPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storagedriver.PathNotFoundError{Path: subPath}
		}
		return nil, err
	}
	return contents, nil
}

// PutContent stores the []byte content at a location designated by "path".
func (d *Driver) PutContent(subPath string, contents []byte) error {
	fullPath := d.subPath(subPath)
	if err := os.MkdirAll(path.Dir(fullPath), 0755); err != nil {
		return err
	}
	return ioutil.WriteFile(fullPath, contents, 0644)
}

// ReadStream retrieves an io.ReadCloser for the content stored at "path"
// with a given byte offset.
func (d *Driver) ReadStream(subPath string, offset int64) (io.ReadCloser, error) {
	file, err := os.OpenFile(d.subPath(subPath), os.O_RDONLY, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storagedriver.PathNotFoundError{Path: subPath}
		}
		return nil, err
	}

	seekPos, err := file.Seek(offset, io.SeekStart)
	if err != nil {
		file.Close()
		return nil, err
	} else if seekPos < offset {
		file.Close()
		return nil, storagedriver.InvalidOffsetError{Path: subPath, Offset: offset}
	}

	return file, nil
}

func (d *Driver) currentSize(subPath string) (int64, error) {
	fi, err := os.Stat(d.subPath(subPath))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return fi.Size(), nil
}

// WriteStream writes the contents of reader to "path" starting at offset,
// returning the number of bytes written.
func (d *Driver) WriteStream(subPath string, offset int64, reader io.Reader) (int64, error) {
	resumableOffset, err := d.currentSize(subPath)
	if err != nil {
		return 0, err
	}
	if offset > resumableOffset {
		return 0, storagedriver.InvalidOffsetError{Path: subPath, Offset: offset}
	}

	fullPath := d.subPath(subPath)
	if err := os.MkdirAll(path.Dir(fullPath), 0755); err != nil {
		return 0, err
	}

	var file *os.File
	if offset == 0 {
		file, err = os.Create(fullPath)
	} else {
		file, err = os.OpenFile(fullPath, os.O_WRONLY, 0644)
	}
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return io.Copy(&offsetWriter{file: file, offset: offset}, reader)
}

// offsetWriter writes sequentially starting at a fixed file offset,
// tracking how many bytes have been written via its WriteAt calls.
type offsetWriter struct {
	file   *os.File
	offset int64
}

func (w *offsetWriter) Write(p []byte) (int, error) {
	n, err := w.file.WriteAt(p, w.offset)
	w.offset += int64(n)
	return n, err
}

// Stat retrieves the FileInfo for the given path.
func (d *Driver) Stat(subPath string) (storagedriver.FileInfo, error) {
	fi, err := os.Stat(d.subPath(subPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storagedriver.PathNotFoundError{Path: subPath}
		}
		return nil, err
	}
	return storagedriver.NewFileInfo(storagedriver.FileInfoFields{
		Path:    subPath,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}), nil
}

// List returns the direct descendants of the given path.
func (d *Driver) List(subPath string) ([]string, error) {
	fullPath := d.subPath(subPath)

	dir, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storagedriver.PathNotFoundError{Path: subPath}
		}
		return nil, err
	}
	defer dir.Close()

	names, err := dir.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, path.Join(subPath, name))
	}
	return keys, nil
}

// Move moves an object stored at sourcePath to destPath.
func (d *Driver) Move(sourcePath string, destPath string) error {
	source := d.subPath(sourcePath)
	dest := d.subPath(destPath)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return storagedriver.PathNotFoundError{Path: sourcePath}
	}
	if err := os.MkdirAll(path.Dir(dest), 0755); err != nil {
		return err
	}
	return os.Rename(source, dest)
}

// Delete recursively deletes all objects stored at "path" and its subpaths.
func (d *Driver) Delete(subPath string) error {
	fullPath := d.subPath(subPath)

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return storagedriver.PathNotFoundError{Path: subPath}
		}
		return err
	}
	return os.RemoveAll(fullPath)
}
