/*
Package storage
File: file.go
Description: Save export/import as plain JSON files.
*/

package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExportFile writes a save to disk as indented JSON. The write is atomic.
func ExportFile(path string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("export %s: payload is not JSON", path)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-*.json")
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// ImportFile reads a save file exported by ExportFile (or by hand).
// Validation happens in the engine's load path, not here.
func ImportFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return data, nil
}
