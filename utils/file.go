package utils

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp"
)

func LoadImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func matchesAnyExt(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Keep this in sync with the decoders registered above
func isImage(filename string) bool {
	var ext = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	return matchesAnyExt(filename, ext)
}

// FindImages gathers image file paths under root, descending into
// subdirectories only when asked to
func FindImages(root string, subdirs bool) []string {
	var images []string
	filepath.WalkDir(root, func(s string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if isImage(d.Name()) {
			images = append(images, s)
		}
		if !subdirs && root != s && d.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	return images
}

// Bubble up any errors without breaking the loop
func MoveFiles(files []string, dir string) (e error) {
	for _, src := range files {
		filename := filepath.Base(src)
		dst := filepath.Join(dir, filename)
		err := os.Rename(src, dst)
		e = errors.Join(e, err)
	}
	return
}

// Bubble up any errors without breaking the loop
func DeleteFiles(files []string) (e error) {
	for _, f := range files {
		err := os.Remove(f)
		e = errors.Join(e, err)
	}
	return
}

func ImageOrDir(path string) (abs string, isImg bool, isDir bool) {
	if path == "" {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	file, err := os.Stat(abs)
	if err != nil {
		return
	}

	if file.IsDir() {
		isDir = true
	} else if isImage(file.Name()) {
		isImg = true
	}
	return
}
