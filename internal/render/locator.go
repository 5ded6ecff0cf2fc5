package render

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"scenecast/internal/pkg/errors"
)

// candidateDirs returns the renderer output directories to check, in
// order. The renderer names the media directory after the script stem
// (the job ID here) and nests it under a quality-dependent resolution
// directory; some versions truncate long stems to eight characters.
func candidateDirs(root, jobID string) []string {
	dirs := []string{
		filepath.Join(root, "media", "videos", jobID, "480p15"),
		filepath.Join(root, "media", "videos", jobID, "720p30"),
		filepath.Join(root, "media", "videos", jobID, "1080p60"),
	}
	if len(jobID) > 8 {
		dirs = append(dirs, filepath.Join(root, "media", "videos", jobID[:8], "480p15"))
	}
	return dirs
}

// Locate finds the artifact the renderer produced for a job under the
// job's scratch root. It checks the known output directories first and
// falls back to a recursive walk of the whole scratch tree, so layout
// changes between renderer versions degrade to a slower search instead
// of a failure. Ties resolve to the lexicographically first path.
func Locate(root, jobID, format string) (string, error) {
	ext := "." + strings.TrimPrefix(strings.ToLower(format), ".")

	for _, dir := range candidateDirs(root, jobID) {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		return matches[0], nil
	}

	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			found = append(found, path)
		}
		return nil
	})
	if len(found) > 0 {
		sort.Strings(found)
		return found[0], nil
	}

	return "", errors.Newf(errors.CodeNotFound, "no %s file generated under %s", ext, root)
}
