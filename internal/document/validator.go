package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// lockFilePrefix marks the owner files Word keeps next to open documents
const lockFilePrefix = "~$"

// SupportedExtensions lists the file extensions a Loader can read
var SupportedExtensions = []string{".docx", ".pdf"}

// Validator checks whether a file is a candidate form document
type Validator struct {
	fs          afero.Fs
	maxFileSize int64
}

// NewValidator creates a validator with the given size limit
func NewValidator(fs afero.Fs, maxFileSize int64) *Validator {
	return &Validator{
		fs:          fs,
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks existence, type, name and size of a document
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := v.fs.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(path, info)
}

// ValidateFileInfo performs the checks that need no file access
func (v *Validator) ValidateFileInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if IsLockFile(path) {
		return fmt.Errorf("file is a Word lock file: %s", path)
	}

	if !HasSupportedExtension(path) {
		return fmt.Errorf("file is not a supported document: %s", path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize)
	}

	return nil
}

// IsValidDocument performs a quick check without reporting why
func (v *Validator) IsValidDocument(path string) bool {
	return v.ValidateFile(path) == nil
}

// IsLockFile reports whether the base name is a Word owner file
func IsLockFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), lockFilePrefix)
}

// HasSupportedExtension reports whether the path ends in a readable extension
func HasSupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
