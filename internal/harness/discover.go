package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverBinaries lists the executable regular files directly under dir,
// sorted by name. Non-executable files and subdirectories are ignored.
func DiscoverBinaries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read engine dir: %w", err)
	}

	var binaries []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		binaries = append(binaries, filepath.Join(dir, e.Name()))
	}
	sort.Strings(binaries)
	return binaries, nil
}
