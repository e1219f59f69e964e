package dsl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadedFile pairs a raw declaration with the exact (preprocessed)
// source text, since the yaml checksum is computed over the
// declaration text, not the re-serialized struct.
type LoadedFile struct {
	Path  string
	Text  string
	Query RawQuery
}

// declarationExtensions is the set of file extensions the loader treats
// as declaration files when walking a directory.
var declarationExtensions = map[string]bool{".yaml": true, ".yml": true}

// LoadDir walks dir for declaration files, preprocesses and parses
// each.
func LoadDir(dir string) ([]LoadedFile, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if declarationExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dsl: walk %s: %w", dir, err)
	}

	var out []LoadedFile
	for _, path := range files {
		lf, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, lf)
	}
	return out, nil
}

// LoadFile preprocesses and parses a single declaration file.
func LoadFile(path string) (LoadedFile, error) {
	text, err := Preprocess(path, nil)
	if err != nil {
		return LoadedFile{}, err
	}

	var q RawQuery
	if err := yaml.Unmarshal([]byte(text), &q); err != nil {
		return LoadedFile{}, fmt.Errorf("dsl: parse %s: %w", path, err)
	}

	return LoadedFile{Path: path, Text: text, Query: q}, nil
}
