package document

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/document/doctest"
)

// buildDOCX returns a minimal DOCX archive whose body holds the given XML
func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	return doctest.DOCX(t, body)
}

// writeFile stores data in the in-memory filesystem
func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
