package maps_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map-helper/internal/grid"
	"map-helper/internal/maps"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListSortedDirectoriesOnly(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}
	writeFile(t, filepath.Join(root, "readme.txt"), "x")

	folders, err := maps.List(root)
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, "alpha", folders[0].Name)
	assert.Equal(t, "mid", folders[1].Name)
	assert.Equal(t, "zeta", folders[2].Name)
	assert.Equal(t, filepath.Join(root, "alpha"), folders[0].Path)
}

func TestListMissingRoot(t *testing.T) {
	_, err := maps.List(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)

	_, err = maps.List(t.TempDir())
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "desert"), 0o755))

	f, err := maps.Find(root, "desert")
	require.NoError(t, err)
	assert.Equal(t, "desert", f.Name)

	_, err = maps.Find(root, "swamp")
	require.Error(t, err)
}

func TestLoadGrid(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, grid.Default(), maps.LoadGrid(dir))

	writeFile(t, filepath.Join(dir, "grid.json"), `{"rows": 3, "cols": 4}`)
	assert.Equal(t, grid.Config{Rows: 3, Cols: 4}, maps.LoadGrid(dir))

	writeFile(t, filepath.Join(dir, "grid.json"), `{"rows": 2}`)
	assert.Equal(t, grid.Config{Rows: 2, Cols: 5}, maps.LoadGrid(dir))

	writeFile(t, filepath.Join(dir, "grid.json"), `{"rows": 0, "cols": 4}`)
	assert.Equal(t, grid.Default(), maps.LoadGrid(dir))

	writeFile(t, filepath.Join(dir, "grid.json"), `{not json`)
	assert.Equal(t, grid.Default(), maps.LoadGrid(dir))
}

func TestLoadNamesLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "names.json"), `{"en": {"a": "Alpha"}, "zh": {"a": "阿尔法"}}`)

	assert.Equal(t, "阿尔法", maps.LoadNames(dir, "zh").Display("a"))
	assert.Equal(t, "Alpha", maps.LoadNames(dir, "fr").Display("a"))
	assert.Equal(t, "b", maps.LoadNames(dir, "en").Display("b"))
}

func TestLoadNamesFlatAndMissing(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, maps.LoadNames(dir, "en"))
	assert.Equal(t, "raw_key", maps.LoadNames(dir, "en").Display("raw_key"))

	writeFile(t, filepath.Join(dir, "names.json"), `{"a": "Alpha", "b": "Beta"}`)
	names := maps.LoadNames(dir, "en")
	assert.Equal(t, "Alpha", names.Display("a"))
	assert.Equal(t, "Beta", names.Display("b"))

	writeFile(t, filepath.Join(dir, "names.json"), `[1, 2`)
	assert.Empty(t, maps.LoadNames(dir, "en"))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Ice Abyss", maps.Humanize("forest_IceAbyss", "forest"))
	assert.Equal(t, "Ice Abyss", maps.Humanize("FOREST_ice_abyss", "forest"))
	assert.Equal(t, "Old Mill", maps.Humanize("old__mill", ""))
	assert.Equal(t, "Http Server", maps.Humanize("HTTPServer", ""))
	assert.Equal(t, "___", maps.Humanize("___", ""))
}

func TestGenerateAndWriteNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cave")
	writeFile(t, filepath.Join(dir, "cave_DeepPool.png"), "x")
	writeFile(t, filepath.Join(dir, "entrance.png"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")

	names, err := maps.GenerateNames(dir)
	require.NoError(t, err)
	assert.Equal(t, maps.Names{"cave_DeepPool": "Deep Pool", "entrance": "Entrance"}, names["en"])
	assert.Equal(t, names["en"], names["zh"])

	written, err := maps.WriteNames(dir, names, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = maps.WriteNames(dir, names, false)
	require.NoError(t, err)
	assert.False(t, written)

	data, err := os.ReadFile(filepath.Join(dir, "names.json"))
	require.NoError(t, err)
	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Deep Pool", decoded["zh"]["cave_DeepPool"])
}

func TestGenerateNamesEmptyFolder(t *testing.T) {
	names, err := maps.GenerateNames(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, names)
}
