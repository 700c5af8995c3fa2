package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// A file extracted from an archive.
type File struct {
	Name    string // Base name of the file, without any directory prefix.
	Content []byte
}

// Converts a host path into an archive root usable inside a sandbox.
//
// Drive-letter colons are stripped, backslashes become forward slashes,
// spaces become underscores, and the leading separator is trimmed so the
// tree lands under the sandbox root rather than replacing it.
func SanitizeRoot(hostPath string) string {
	root := strings.ReplaceAll(hostPath, ":", "")
	root = strings.ReplaceAll(root, "\\", "/")
	root = strings.ReplaceAll(root, " ", "_")
	return strings.TrimPrefix(root, "/")
}

// Packs the directory tree at srcDir into a gzip-compressed tar archive
// written to w, with every entry placed under root.
func Pack(srcDir, root string, w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(srcDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}

		archivePath := path.Join(root, filepath.ToSlash(relPath))
		return writeEntry(tw, p, archivePath, d)
	})
	if err != nil {
		return errors.Wrapf(err, "packing %s", srcDir)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// Writes a single file or directory entry to a tar writer.
func writeEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	return nil
}

// Unpacks a gzip-compressed tar archive, returning every non-empty regular
// file it contains.
//
// Directory entries and zero-byte files are dropped. Entry names are reduced
// to their base name; callers place the files where they belong.
func Unpack(r io.Reader) ([]File, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "unpacking archive")
	}
	defer gz.Close()

	var files []File
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "unpacking archive")
		}

		if header.Typeflag != tar.TypeReg || header.Size == 0 {
			continue
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return nil, errors.Wrapf(err, "unpacking %s", header.Name)
		}
		if buf.Len() == 0 {
			continue
		}

		files = append(files, File{
			Name:    path.Base(header.Name),
			Content: buf.Bytes(),
		})
	}

	return files, nil
}
