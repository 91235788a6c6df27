package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// IsSchemaFile reports whether path has a schema file extension
func IsSchemaFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// FindSchemaFiles recursively finds all schema files in the specified
// directory, in lexical order
func FindSchemaFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if IsSchemaFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandSchemaPaths replaces every directory in paths by the schema files
// below it. Files are kept as given, whatever their extension.
func ExpandSchemaPaths(paths []string) ([]string, error) {
	expanded := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			expanded = append(expanded, path)
			continue
		}

		files, err := FindSchemaFiles(path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schema directory %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no schema files found in %s", path)
		}
		expanded = append(expanded, files...)
	}
	return expanded, nil
}
