package injector

import (
	"fmt"
	"os"
)

// FileWriter is the filesystem seen by the Injector.
type FileWriter interface {
	// Write creates path, or replaces its content, with data.
	Write(path string, data []byte) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether anything (file or directory) is at path.
	Exists(path string) bool
}

// OSFileWriter is the FileWriter backed by the local disk.
type OSFileWriter struct{}

var _ FileWriter = (*OSFileWriter)(nil)

// Write keeps the permissions of a file it replaces; new files get 0644.
// A directory at path is an error rather than something to replace.
func (*OSFileWriter) Write(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}

func (*OSFileWriter) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (*OSFileWriter) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
