// Package filex writes downloaded artifacts to local directories.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveTo writes data to dir/name, creating dir if needed. A relative dir is
// resolved against the working directory. The absolute path is returned.
func SaveTo(dir, name string, data []byte) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
