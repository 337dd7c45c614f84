package fs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/santiagomed/stepseq/utils"
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

// NewRootedFileSystem confines every path to root on the OS file system.
func NewRootedFileSystem(root string) *FileSystem {
	return &FileSystem{
		Fs: afero.NewBasePathFs(afero.NewOsFs(), root),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
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

func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return data, nil
}

func (fs *FileSystem) MkdirAll(path string) error {
	if err := fs.Fs.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", path, err)
	}
	return nil
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (fs *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(fs.Fs, path)
	return err == nil && ok
}

// CheckSelection verifies that path exists and is acceptable for a path
// selection with the given extension filter and directory flag.
func (fs *FileSystem) CheckSelection(path string, allowedTypes []string, allowDirectories bool) error {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot select %s: %w", path, err)
	}
	if info.IsDir() {
		if !allowDirectories {
			return fmt.Errorf("cannot select %s: directories are not allowed", path)
		}
		return nil
	}
	exts := utils.NormalizeExtensions(allowedTypes)
	if !utils.HasAllowedExtension(path, exts) {
		return fmt.Errorf("cannot select %s: allowed types are %s", path, strings.Join(exts, ", "))
	}
	return nil
}

