package pack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ZipDirectory archives the contents of dir into zipPath. Paths inside the
// archive are relative to dir, so unzipping reproduces the folder contents
// without an extra wrapping directory.
func ZipDirectory(dir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", zipPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		dst, err := w.CreateHeader(header)
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("archiving %s: %w", dir, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", zipPath, err)
	}
	return nil
}
