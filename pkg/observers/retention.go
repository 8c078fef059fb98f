package observers

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const timelineExt = ".jsonl"

// PurgeTimelines deletes session timelines in dir whose last write is older
// than maxAge and returns the IDs of the sessions it removed. Only top-level
// .jsonl files are considered. A missing dir or a non-positive maxAge is a
// no-op.
func PurgeTimelines(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	if strings.TrimSpace(dir) == "" || maxAge <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-maxAge)
	var removed []string
	var errs error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			errs = errors.Join(errs, err)
			return nil
		}
		if d.IsDir() {
			if path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != timelineExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			errs = errors.Join(errs, err)
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			errs = errors.Join(errs, err)
			return nil
		}
		removed = append(removed, strings.TrimSuffix(d.Name(), timelineExt))
		return nil
	})
	sort.Strings(removed)
	return removed, errors.Join(err, errs)
}
