package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/iot-link/pkg/file"
)

func TestFileService_WriteJsonFile_ReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "devices.json")
	fs := file.NewFileService()

	err := fs.WriteJsonFile(path, []map[string]string{{"id": "dev-1"}})
	require.NoError(t, err)

	raw, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"dev-1"}]`, string(raw))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileService_ReadYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: home\ncount: 2\n"), 0o600))

	var v struct {
		Name  string `yaml:"name"`
		Count int    `yaml:"count"`
	}
	require.NoError(t, file.NewFileService().ReadYamlFile(path, &v))
	assert.Equal(t, "home", v.Name)
	assert.Equal(t, 2, v.Count)
}

func TestFileService_IsFileExists(t *testing.T) {
	fs := file.NewFileService()

	ok, err := fs.IsFileExists(filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, err)
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	ok, err = fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.True(t, ok)
}
