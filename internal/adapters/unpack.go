package adapters

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"leanup/internal/ports"
)

// ArchiveUnpacker extracts release archives. The format is dispatched
// on the filename suffix; an unrecognized suffix is a hard error.
// Release archives wrap their contents in a single top-level
// directory, which is stripped so the install root contains bin/, lib/
// and friends directly.
type ArchiveUnpacker struct{}

func NewArchiveUnpacker() ArchiveUnpacker {
	return ArchiveUnpacker{}
}

func (u ArchiveUnpacker) Unpack(archivePath string, destDir string) error {
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		return u.unpackTar(archivePath, destDir, func(r io.Reader) (io.Reader, func(), error) {
			gz, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return gz, func() { gz.Close() }, nil
		})
	case strings.HasSuffix(archivePath, ".tar.zst"):
		return u.unpackTar(archivePath, destDir, func(r io.Reader) (io.Reader, func(), error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, zr.Close, nil
		})
	case strings.HasSuffix(archivePath, ".zip"):
		return u.unpackZip(archivePath, destDir)
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported archive format '%s'", filepath.Base(archivePath)))
	}
}

func (u ArchiveUnpacker) unpackTar(archivePath string, destDir string, decompress func(io.Reader) (io.Reader, func(), error)) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	raw, done, err := decompress(file)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to decompress '%s'", filepath.Base(archivePath))).
			WithCause(err)
	}
	defer done()

	reader := tar.NewReader(raw)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to read '%s'", filepath.Base(archivePath))).
				WithCause(err)
		}
		target, ok, err := safeTarget(destDir, header.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, os.FileMode(header.Mode)&0o777); err != nil {
				return err
			}
		}
	}
}

func (u ArchiveUnpacker) unpackZip(archivePath string, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to open '%s'", filepath.Base(archivePath))).
			WithCause(err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target, ok, err := safeTarget(destDir, entry.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, src, entry.Mode()&0o777)
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeTarget maps an archive entry name to a destination path,
// stripping the single top-level directory and rejecting entries that
// escape the destination. The stripped root itself maps to nothing.
func safeTarget(destDir string, name string) (string, bool, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == "." || filepath.IsAbs(cleaned) {
		return "", false, nil
	}
	parts := strings.Split(cleaned, string(filepath.Separator))
	if parts[0] == ".." {
		return "", false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("archive entry '%s' escapes the destination", name))
	}
	parts = parts[1:]
	if len(parts) == 0 {
		return "", false, nil
	}
	return filepath.Join(append([]string{destDir}, parts...)...), true, nil
}

func writeFile(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

var _ ports.UnpackerPort = ArchiveUnpacker{}
