package environment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cesargomez89/movielog/internal/constants"
)

type versionFile struct {
	SchemaVersion string `json:"schema_version"`
}

// readVersionFile returns the persisted schema version, or the empty string
// when the metafile does not exist yet.
func readVersionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version metafile: %w", err)
	}
	var vf versionFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return "", fmt.Errorf("failed to parse version metafile: %w", err)
	}
	return vf.SchemaVersion, nil
}

// writeVersionFile rewrites the metafile atomically: a temp file in the
// same directory is renamed over the target so readers never observe a
// partial write.
func writeVersionFile(path, version string) error {
	data, err := json.Marshal(versionFile{SchemaVersion: version})
	if err != nil {
		return fmt.Errorf("failed to encode version metafile: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), constants.VersionFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp metafile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()         //nolint:errcheck // cleanup on error path
		os.Remove(tmpName)  //nolint:errcheck // cleanup on error path
		return fmt.Errorf("failed to write temp metafile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // cleanup on error path
		return fmt.Errorf("failed to close temp metafile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // cleanup on error path
		return fmt.Errorf("failed to replace version metafile: %w", err)
	}
	return nil
}
