package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
)

// zipExtractor is the built-in ZIP fallback with no external dependency
type zipExtractor struct{}

// NewZipExtractor creates the built-in ZIP extraction strategy
func NewZipExtractor() interfaces.ArchiveExtractor {
	return &zipExtractor{}
}

func (x *zipExtractor) Name() string { return "builtin-zip" }

func (x *zipExtractor) Available() bool { return true }

func (x *zipExtractor) Supports(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".zip")
}

func (x *zipExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		// Insecure entry names are rejected per entry by securePath, so the
		// archive itself is still processed
		if !errors.Is(err, zip.ErrInsecurePath) {
			return goerr.Wrap(err, "failed to open zip archive", goerr.V("archive", archivePath))
		}
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "extraction canceled")
		}
		if err := extractZipFile(file, destDir); err != nil {
			return goerr.Wrap(err, "failed to extract zip entry", goerr.V("entry", file.Name))
		}
	}
	return nil
}

// extractZipFile extracts a single entry into the destination directory
func extractZipFile(file *zip.File, destDir string) error {
	destPath, err := securePath(destDir, file.Name)
	if err != nil {
		return err
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories")
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open entry in zip")
	}
	defer rc.Close()

	mode := file.FileInfo().Mode()
	if mode.Perm() == 0 {
		mode = 0644
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file")
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy entry content")
	}
	return nil
}

// tarGzExtractor is the built-in gzipped tarball fallback
type tarGzExtractor struct{}

// NewTarGzExtractor creates the built-in tar.gz extraction strategy
func NewTarGzExtractor() interfaces.ArchiveExtractor {
	return &tarGzExtractor{}
}

func (x *tarGzExtractor) Name() string { return "builtin-targz" }

func (x *tarGzExtractor) Available() bool { return true }

func (x *tarGzExtractor) Supports(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

func (x *tarGzExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive", goerr.V("archive", archivePath))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return goerr.Wrap(err, "failed to open gzip stream", goerr.V("archive", archivePath))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "extraction canceled")
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return goerr.Wrap(err, "failed to read tar stream")
		}

		if err := extractTarEntry(ctx, tr, header, destDir); err != nil {
			return goerr.Wrap(err, "failed to extract tar entry", goerr.V("entry", header.Name))
		}
	}
}

// extractTarEntry writes one tar entry. Entry types other than files and
// directories are skipped, a payload archive carries neither links nor
// devices.
func extractTarEntry(ctx context.Context, tr *tar.Reader, header *tar.Header, destDir string) error {
	destPath, err := securePath(destDir, header.Name)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(destPath, header.FileInfo().Mode())

	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return goerr.Wrap(err, "failed to create parent directories")
		}

		mode := header.FileInfo().Mode()
		if mode.Perm() == 0 {
			mode = 0644
		}

		destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return goerr.Wrap(err, "failed to create destination file")
		}
		defer destFile.Close()

		if _, err := io.Copy(destFile, tr); err != nil {
			return goerr.Wrap(err, "failed to copy entry content")
		}
		return nil

	default:
		ctxlog.From(ctx).Debug("skipping unsupported tar entry",
			"entry", header.Name,
			"type", header.Typeflag,
		)
		return nil
	}
}

// securePath joins an archive entry name onto destDir, rejecting entries
// that would escape the destination
func securePath(destDir, name string) (string, error) {
	destPath := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", goerr.New("archive entry escapes destination",
			goerr.V("entry", name), goerr.V("dest", destDir))
	}
	return destPath, nil
}
