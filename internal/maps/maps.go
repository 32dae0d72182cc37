// Package maps reads map folders: their grid descriptor and localized location names.
package maps

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/zerr"

	"map-helper/internal/grid"
)

const (
	gridFile  = "grid.json"
	namesFile = "names.json"

	fallbackLanguage = "en"
)

var (
	// ErrNoMaps is returned when the maps root is missing or holds no folders.
	ErrNoMaps = zerr.New("no map folders found")
	// ErrNotFound is returned for an unknown map name.
	ErrNotFound = zerr.New("map not found")
)

// Folder is one map: a directory of reference tiles.
type Folder struct {
	Name string
	Path string
}

// List returns the map folders under root, sorted by name.
func List(root string) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrNoMaps.Error()), "root", root)
	}

	var folders []Folder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		folders = append(folders, Folder{Name: e.Name(), Path: filepath.Join(root, e.Name())})
	}
	if len(folders) == 0 {
		return nil, zerr.With(ErrNoMaps, "root", root)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// Find returns the folder for name under root.
func Find(root, name string) (Folder, error) {
	path := filepath.Join(root, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Folder{}, zerr.With(ErrNotFound, "map", name)
	}
	return Folder{Name: name, Path: path}, nil
}

// LoadGrid reads grid.json from the folder. A missing or unreadable
// descriptor yields the 5x5 default; absent keys default individually.
func LoadGrid(folder string) grid.Config {
	data, err := os.ReadFile(filepath.Join(folder, gridFile))
	if err != nil {
		return grid.Default()
	}
	cfg := grid.Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return grid.Default()
	}
	if !cfg.Valid() {
		return grid.Default()
	}
	return cfg
}

// Names maps location keys (template base names) to display names.
type Names map[string]string

// Display returns the display name for key, or key itself when unmapped.
func (n Names) Display(key string) string {
	if name, ok := n[key]; ok && name != "" {
		return name
	}
	return key
}

// LoadNames reads names.json from the folder. Both the per-language layout
// {"en": {...}, "zh": {...}} and a flat {key: name} object are accepted.
// The requested language falls back to English. Missing or corrupt files
// yield an empty mapping.
func LoadNames(folder, language string) Names {
	data, err := os.ReadFile(filepath.Join(folder, namesFile))
	if err != nil {
		return Names{}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Names{}
	}

	for _, lang := range []string{language, fallbackLanguage} {
		block, ok := raw[lang]
		if !ok {
			continue
		}
		var names Names
		if err := json.Unmarshal(block, &names); err == nil {
			return names
		}
	}

	flat := Names{}
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			flat[key] = s
		}
	}
	return flat
}
