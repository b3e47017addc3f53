package phase

import "path/filepath"

func globPattern(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
