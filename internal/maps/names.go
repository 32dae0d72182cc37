package maps

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.trai.ch/zerr"
)

var spaceRun = regexp.MustCompile(`\s+`)

// Humanize turns a tile key such as "forest_IceAbyss" into "Ice Abyss",
// dropping a leading "<prefix>_" (case-insensitive).
func Humanize(key, prefix string) string {
	original := key
	if prefix != "" && strings.HasPrefix(strings.ToLower(key), strings.ToLower(prefix)+"_") {
		key = key[len(prefix)+1:]
	}
	s := strings.ReplaceAll(key, "_", " ")
	s = splitCamel(s)
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	if s == "" {
		return original
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// splitCamel inserts a space before every upper-case letter that starts a
// capitalized word, e.g. "IceAbyss" -> "Ice Abyss", "HTTPServer" -> "HTTP Server".
func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && runes[i-1] != ' ' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GeneratedNames is the names.json layout written by GenerateNames.
type GeneratedNames map[string]Names

// GenerateNames builds a names.json mapping for every PNG tile in folder.
// The Chinese block is seeded with the English names for later editing.
// Returns nil when the folder has no tiles.
func GenerateNames(folder string) (GeneratedNames, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read map folder"), "folder", folder)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".png" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	prefix := filepath.Base(folder)
	out := GeneratedNames{"en": Names{}, "zh": Names{}}
	for _, key := range keys {
		display := Humanize(key, prefix)
		out["en"][key] = display
		out["zh"][key] = display
	}
	return out, nil
}

// WriteNames writes names.json into folder. Existing files are kept unless
// overwrite is set; the returned bool reports whether a file was written.
func WriteNames(folder string, names GeneratedNames, overwrite bool) (bool, error) {
	target := filepath.Join(folder, namesFile)
	if _, err := os.Stat(target); err == nil && !overwrite {
		return false, nil
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return false, zerr.Wrap(err, "failed to encode names")
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to write names"), "path", target)
	}
	return true, nil
}
