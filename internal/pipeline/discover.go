package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/backmassage/motionbench/internal/motion"
)

// ErrEnumeration is returned when the input directory cannot be listed.
var ErrEnumeration = errors.New("cannot enumerate input directory")

// Discover walks inputDir and returns one stream per regular file beneath
// it. Stream IDs are paths relative to inputDir, sorted lexicographically
// for a deterministic processing order. Symlinks, devices and other
// non-regular entries below the root are skipped; a symlinked root is
// followed. Stream paths keep inputDir as given.
func Discover(inputDir string) ([]motion.Stream, error) {
	root, err := filepath.EvalSymlinks(inputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}

	var streams []motion.Stream
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			if !d.IsDir() {
				return fmt.Errorf("%s is not a directory", inputDir)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		id, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		streams = append(streams, motion.Stream{ID: id, Path: filepath.Join(inputDir, id)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i].ID < streams[j].ID })
	return streams, nil
}
