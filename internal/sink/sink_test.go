package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/a3tai/formharvest/internal/extract"
)

var labels = []string{"Name", "Gender", "Joined"}

func record(t *testing.T, text string) extract.Record {
	t.Helper()
	return extract.NewExtractor(labels, extract.DefaultMarkers()).Extract(text)
}

func TestFileTable_CSVRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	table, err := Open(fs, "/out/forms.csv", labels)
	require.NoError(t, err)
	assert.Equal(t, labels, table.Columns())
	assert.Equal(t, 0, table.Len())

	table.Append(record(t, "Name: Ann\nGender: ☐Male ✓Female\nJoined: 2016/1"))
	table.Append(record(t, "Name: Bob"))
	require.NoError(t, table.Save(ctx))

	data, err := afero.ReadFile(fs, "/out/forms.csv")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM), "csv should start with a byte order mark")
	assert.Equal(t, "Name,Gender,Joined\nAnn,Female,'2016.01\nBob,,\n", string(data[len(utf8BOM):]))

	reopened, err := Open(fs, "/out/forms.csv", labels)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, labels, reopened.Columns())

	exists, err := afero.Exists(fs, "/out/forms.csv.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileTable_MergesExistingHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/forms.csv", []byte("Notes,Name\nkept,Zoe\n"), 0o644))

	table, err := Open(fs, "/out/forms.csv", labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes", "Name", "Gender", "Joined"}, table.Columns())

	table.Append(record(t, "Name: Ann Gender: ✓Other"))
	require.NoError(t, table.Save(context.Background()))

	data, err := afero.ReadFile(fs, "/out/forms.csv")
	require.NoError(t, err)
	assert.Equal(t, "Notes,Name,Gender,Joined\nkept,Zoe,,\n,Ann,Other,\n", string(data[len(utf8BOM):]))
}

func TestFileTable_ReadsGBK(t *testing.T) {
	fs := afero.NewMemMapFs()
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("姓名,性别\n张三,男\n")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/out/legacy.csv", []byte(encoded), 0o644))

	table, err := Open(fs, "/out/legacy.csv", []string{"姓名"})
	require.NoError(t, err)
	assert.Equal(t, []string{"姓名", "性别"}, table.Columns())
	assert.Equal(t, 1, table.Len())
}

func TestFileTable_XLSXRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	table, err := Open(fs, "/out/forms.xlsx", labels)
	require.NoError(t, err)
	table.Append(record(t, "Name: 007\nJoined: 2019.12"))
	require.NoError(t, table.Save(ctx))

	reopened, err := Open(fs, "/out/forms.xlsx", labels)
	require.NoError(t, err)
	assert.Equal(t, labels, reopened.Columns())
	require.Equal(t, 1, reopened.Len())
	assert.Equal(t, []string{"007", "", "'2019.12"}, padRows(reopened.rows, 3)[0])
}

func TestFileTable_SaveNewTableWritesHeader(t *testing.T) {
	fs := afero.NewMemMapFs()

	table, err := Open(fs, "/out/forms.csv", labels)
	require.NoError(t, err)
	require.NoError(t, table.Save(context.Background()))

	data, err := afero.ReadFile(fs, "/out/forms.csv")
	require.NoError(t, err)
	assert.Equal(t, "Name,Gender,Joined\n", string(data[len(utf8BOM):]))
}

func TestFileTable_SaveWithoutChangesWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := "Name,Gender,Joined\nAnn,,\n"
	require.NoError(t, afero.WriteFile(fs, "/out/forms.csv", []byte(original), 0o644))

	table, err := Open(fs, "/out/forms.csv", labels)
	require.NoError(t, err)
	require.NoError(t, table.Save(context.Background()))

	data, err := afero.ReadFile(fs, "/out/forms.csv")
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestFileTable_SaveFailureKeepsRows(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	table, err := Open(fs, "/out/forms.csv", labels, WithSaveRetries(2, time.Millisecond))
	require.NoError(t, err)
	table.Append(record(t, "Name: Ann"))

	err = table.Save(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, table.Len())
	assert.True(t, table.dirty)
}

func TestFileTable_LocksOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forms.csv")

	table, err := Open(afero.NewOsFs(), path, labels)
	require.NoError(t, err)
	assert.True(t, table.locking)

	table.Append(record(t, "Name: Ann"))
	require.NoError(t, table.Save(context.Background()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file should be removed after save")
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	for _, path := range []string{"/out/forms.ods", "/out/forms.xlsm", "/out/forms"} {
		_, err := Open(afero.NewMemMapFs(), path, labels)
		assert.ErrorIs(t, err, ErrUnsupportedTable, path)
	}
}
