package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// StdinPath names standard input on the command line.
const StdinPath = "--"

// Input is an opened G-code source. Size is -1 when unknown.
type Input struct {
	io.ReadCloser
	Name string
	Size int64
}

// OpenInput opens the file at path for reading. "--" and "-" select stdin,
// which is never closed.
func (fs *FileSystem) OpenInput(path string) (*Input, error) {
	if path == StdinPath || path == "-" {
		return &Input{ReadCloser: io.NopCloser(os.Stdin), Name: "stdin", Size: -1}, nil
	}

	f, err := fs.Fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to stat input file %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("input %s is a directory", path)
	}
	return &Input{ReadCloser: f, Name: path, Size: info.Size()}, nil
}

// CreateFile creates or truncates the file at path, creating missing parent
// directories.
func (fs *FileSystem) CreateFile(path string) (afero.File, error) {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	f, err := fs.Fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating file %s: %w", path, err)
	}
	return f, nil
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content.
// Missing parent directories are created.
func (fs *FileSystem) WriteFile(path string, content string) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	err := afero.WriteFile(fs.Fs, path, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of the file at path
func (fs *FileSystem) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(data), nil
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
