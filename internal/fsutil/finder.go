// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a sorted slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if rootPath == "" {
		rootPath = "."
	}
	files, err := FindFilesInFS(os.DirFS(rootPath), extension)
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		files[i] = joinRoot(rootPath, f)
	}
	return files, nil
}

// FindFilesInFS is FindFilesByExtension for an fs.FS, such as an embedded
// directory. Returned paths are slash-separated and relative to the FS root.
func FindFilesInFS(fsys fs.FS, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
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

func joinRoot(root, rel string) string {
	if root == "." {
		return rel
	}
	return strings.TrimSuffix(root, "/") + "/" + rel
}
