// Package inmemory implements storagedriver.StorageDriver over a plain
// map, for tests and for a graph store that doesn't need to survive a
// process restart.
package inmemory

import (
	"bytes"
	"io"
	"io/ioutil"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forgepkg/forge/storagedriver"
)

// Driver is a storagedriver.StorageDriver implementation backed by a
// local map. Intended for tests and for ephemeral stores, not
// production use.
type Driver struct {
	storage map[string][]byte
	mutex   sync.RWMutex
}

// New constructs a new Driver.
func New() *Driver {
	return &Driver{storage: make(map[string][]byte)}
}

var _ storagedriver.StorageDriver = (*Driver)(nil)

// GetContent retrieves the content stored at "path" as a []byte.
func (d *Driver) GetContent(path string) ([]byte, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	contents, ok := d.storage[path]
	if !ok {
		return nil, storagedriver.PathNotFoundError{Path: path}
	}
	return contents, nil
}

// PutContent stores the []byte content at a location designated by "path".
func (d *Driver) PutContent(path string, contents []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	buf := make([]byte, len(contents))
	copy(buf, contents)
	d.storage[path] = buf
	return nil
}

// ReadStream retrieves an io.ReadCloser for the content stored at "path"
// with a given byte offset.
func (d *Driver) ReadStream(path string, offset int64) (io.ReadCloser, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	contents, ok := d.storage[path]
	if !ok {
		return nil, storagedriver.PathNotFoundError{Path: path}
	}
	if int64(len(contents)) < offset {
		return nil, storagedriver.InvalidOffsetError{Path: path, Offset: offset}
	}

	src := contents[offset:]
	buf := make([]byte, len(src))
	copy(buf, src)
	return ioutil.NopCloser(bytes.NewReader(buf)), nil
}

// WriteStream writes the contents of reader to "path" starting at offset,
// returning the number of bytes written.
func (d *Driver) WriteStream(path string, offset int64, reader io.Reader) (int64, error) {
	contents, err := ioutil.ReadAll(reader)
	if err != nil {
		return 0, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	existing := d.storage[path]
	if offset > int64(len(existing)) {
		return 0, storagedriver.InvalidOffsetError{Path: path, Offset: offset}
	}

	merged := append(append([]byte{}, existing[:offset]...), contents...)
	d.storage[path] = merged
	return int64(len(contents)), nil
}

// Stat retrieves the FileInfo for the given path. A path is treated as
// a directory if any stored key has it as a proper prefix.
func (d *Driver) Stat(path string) (storagedriver.FileInfo, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if contents, ok := d.storage[path]; ok {
		return storagedriver.NewFileInfo(storagedriver.FileInfoFields{
			Path:    path,
			Size:    int64(len(contents)),
			ModTime: time.Time{},
			IsDir:   false,
		}), nil
	}

	prefix := path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for k := range d.storage {
		if strings.HasPrefix(k, prefix) {
			return storagedriver.NewFileInfo(storagedriver.FileInfoFields{
				Path:  path,
				IsDir: true,
			}), nil
		}
	}
	return nil, storagedriver.PathNotFoundError{Path: path}
}

// List returns the direct descendants of the given path.
func (d *Driver) List(path string) ([]string, error) {
	prefix := path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	subPathMatcher, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + "[^/]+")
	if err != nil {
		return nil, err
	}

	d.mutex.RLock()
	defer d.mutex.RUnlock()

	keySet := make(map[string]struct{})
	for k := range d.storage {
		if key := subPathMatcher.FindString(k); key != "" {
			keySet[key] = struct{}{}
		}
	}

	if len(keySet) == 0 {
		return nil, storagedriver.PathNotFoundError{Path: path}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Move moves an object stored at sourcePath to destPath, removing the
// original object.
func (d *Driver) Move(sourcePath string, destPath string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	contents, ok := d.storage[sourcePath]
	if !ok {
		return storagedriver.PathNotFoundError{Path: sourcePath}
	}
	d.storage[destPath] = contents
	delete(d.storage, sourcePath)
	return nil
}

// Delete recursively deletes all objects stored at "path" and its subpaths.
func (d *Driver) Delete(path string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var subPaths []string
	for k := range d.storage {
		if k == path || strings.HasPrefix(k, path+"/") {
			subPaths = append(subPaths, k)
		}
	}
	if len(subPaths) == 0 {
		return storagedriver.PathNotFoundError{Path: path}
	}
	for _, subPath := range subPaths {
		delete(d.storage, subPath)
	}
	return nil
}
