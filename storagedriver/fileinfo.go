package storagedriver

import "time"

// FileInfo describes a file or directory stored by a StorageDriver, as
// returned by StorageDriver.Stat.
type FileInfo interface {
	// Path returns the path of the file.
	Path() string

	// Size returns the size of the file in bytes. For a directory this
	// is implementation-specific and should not be relied on.
	Size() int64

	// ModTime returns the modification time of the file.
	ModTime() time.Time

	// IsDir returns true if the path is a directory.
	IsDir() bool
}

// FileInfoFields is the common, driver-agnostic implementation of
// FileInfo that individual StorageDriver implementations construct
// their Stat results from.
type FileInfoFields struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

type fileInfoInternal struct {
	FileInfoFields
}

// NewFileInfo wraps fields as a FileInfo.
func NewFileInfo(fields FileInfoFields) FileInfo {
	return fileInfoInternal{fields}
}

func (fi fileInfoInternal) Path() string { return fi.FileInfoFields.Path }

func (fi fileInfoInternal) Size() int64 { return fi.FileInfoFields.Size }

func (fi fileInfoInternal) ModTime() time.Time { return fi.FileInfoFields.ModTime }

func (fi fileInfoInternal) IsDir() bool { return fi.FileInfoFields.IsDir }
