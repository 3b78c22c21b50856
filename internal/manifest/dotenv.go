package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFileName is the optional developer overlay next to the descriptor.
const DotEnvFileName = ".env"

// DotEnvOverlay reads the developer .env file in the descriptor directory,
// if present. A missing file is not an error; the overlay is applied on
// top of the selected profile's env table.
func DotEnvOverlay(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dotenv overlay (%s): %w", path, err)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("dotenv overlay (%s): %w", path, err)
	}
	return vars, nil
}

// MergeOverrides layers extra on top of base without mutating either.
func MergeOverrides(base map[string]string, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
