package document

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestValidator_ValidateFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/form.docx", make([]byte, 128))
	writeFile(t, fs, "/in/scan.PDF", make([]byte, 128))
	writeFile(t, fs, "/in/~$form.docx", make([]byte, 128))
	writeFile(t, fs, "/in/notes.txt", make([]byte, 128))
	writeFile(t, fs, "/in/empty.docx", nil)
	writeFile(t, fs, "/in/huge.docx", make([]byte, 2048))
	_ = fs.MkdirAll("/in/folder.docx", 0o755)

	v := NewValidator(fs, 1024)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid docx", path: "/in/form.docx", wantErr: false},
		{name: "valid pdf upper case extension", path: "/in/scan.PDF", wantErr: false},
		{name: "word lock file", path: "/in/~$form.docx", wantErr: true},
		{name: "unsupported extension", path: "/in/notes.txt", wantErr: true},
		{name: "empty file", path: "/in/empty.docx", wantErr: true},
		{name: "too large", path: "/in/huge.docx", wantErr: true},
		{name: "directory", path: "/in/folder.docx", wantErr: true},
		{name: "missing", path: "/in/absent.docx", wantErr: true},
		{name: "empty path", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFile(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, v.IsValidDocument(tt.path))
			} else {
				assert.NoError(t, err)
				assert.True(t, v.IsValidDocument(tt.path))
			}
		})
	}
}

func TestIsLockFile(t *testing.T) {
	assert.True(t, IsLockFile("/a/b/~$report.docx"))
	assert.False(t, IsLockFile("/a/~$b/report.docx"))
}
