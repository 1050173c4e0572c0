package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// discoveryPattern names the files picked up when no target is given.
const discoveryPattern = "test*.yml"

// collectFiles expands args into suite files. Directories yield every
// .yml/.yaml file below them; plain files are taken as given.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := walkFiles(arg, isSuiteFile)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else {
			files = append(files, arg)
		}
	}

	return files, nil
}

// discoverFiles finds test*.yml files below dir.
func discoverFiles(dir string) ([]string, error) {
	return walkFiles(dir, func(path string) bool {
		ok, _ := filepath.Match(discoveryPattern, filepath.Base(path))
		return ok
	})
}

func walkFiles(root string, match func(string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isSuiteFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}
