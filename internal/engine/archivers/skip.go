package archivers

import "path/filepath"

// skipSet holds the paths a builder is writing to, so an archive placed inside
// its own target never contains itself.
func skipSet(paths ...string) map[string]struct{} {
	skip := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		skip[absPath(p)] = struct{}{}
	}
	return skip
}

func skipped(skip map[string]struct{}, path string) bool {
	_, ok := skip[absPath(path)]
	return ok
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
