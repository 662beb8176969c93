package flags

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const defaultReprocessTTL = 2 * time.Minute

// DefaultDataDir is the default data directory of the node, inside the home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "BeaconIngest")
	case "windows":
		return filepath.Join(home, "AppData", "Local", "BeaconIngest")
	default:
		return filepath.Join(home, ".beacon-ingest")
	}
}
