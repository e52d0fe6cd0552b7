package usecase

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// MergeTree copies the normalized payload under srcDir into target,
// creating directories as needed and overwriting files that already
// exist. File modes are carried over from the source tree. Files in
// target that the payload does not mention are left alone.
func MergeTree(ctx context.Context, srcDir, target string) (*model.MergeStats, error) {
	stats := &model.MergeStats{}

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk payload", goerr.V("path", path))
		}
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "merge canceled")
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to relativize payload path", goerr.V("path", path))
		}
		if rel == "." {
			return nil
		}

		destPath := filepath.Join(target, rel)

		if d.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return goerr.Wrap(err, "failed to create directory", goerr.V("path", destPath))
			}
			stats.Dirs++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return goerr.Wrap(err, "failed to stat payload file", goerr.V("path", path))
		}

		n, err := copyFile(path, destPath, info.Mode().Perm())
		if err != nil {
			return goerr.Wrap(err, "failed to copy payload file",
				goerr.V("src", path),
				goerr.V("dest", destPath),
			)
		}

		stats.Files++
		stats.Bytes += n
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func copyFile(srcPath, destPath string, mode os.FileMode) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	if mode == 0 {
		mode = 0644
	}

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dest, src)
	if err != nil {
		_ = dest.Close()
		return 0, err
	}
	if err := dest.Close(); err != nil {
		return 0, err
	}

	// An earlier run may have left a stricter mode on the target file
	if err := os.Chmod(destPath, mode); err != nil {
		return 0, err
	}

	return n, nil
}
