package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// partialSuffix marks a download still in flight. The file is renamed
// to its final name only after the full body has been flushed to disk.
const partialSuffix = ".partial"

const progressGrain = 8 << 20

type countingReader struct {
	r    io.Reader
	done int64
	last int64
	emit func(done int64)
}

func (x *countingReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	x.done += int64(n)
	if x.emit != nil && x.done-x.last >= progressGrain {
		x.last = x.done
		x.emit(x.done)
	}
	return n, err
}

// writeAtomic streams src into destPath via a .partial sibling so a
// crashed or truncated write never lands under the final name. A
// positive want enforces the expected byte count before the rename.
func writeAtomic(destPath string, src io.Reader, want int64, mode os.FileMode, onProgress func(done int64)) (int64, error) {
	tmpPath := destPath + partialSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create partial file", goerr.V("path", tmpPath))
	}

	reader := &countingReader{r: src, emit: onProgress}
	written, err := io.Copy(f, reader)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to write download", goerr.V("path", tmpPath))
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to sync download", goerr.V("path", tmpPath))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to close download", goerr.V("path", tmpPath))
	}

	if want > 0 && written != want {
		_ = os.Remove(tmpPath)
		return 0, goerr.New("download size mismatch",
			goerr.V("path", tmpPath),
			goerr.V("want", want),
			goerr.V("got", written),
			goerr.T(types.TagIntegrity),
		)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to finalize download", goerr.V("path", destPath))
	}

	return written, nil
}

func (x *installUseCase) fetchAsset(ctx context.Context, req *model.InstallRequest, asset model.Asset, destDir string, onProgress func(done int64)) (model.StagedFile, error) {
	logger := ctxlog.From(ctx)
	destPath := filepath.Join(destDir, asset.Name)

	var written int64
	op := func() error {
		attemptCtx := ctx
		if x.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, x.attemptTimeout)
			defer cancel()
		}

		rc, err := x.releaseClient.DownloadAsset(attemptCtx, req.Owner, req.Repo, asset.ID)
		if err != nil {
			if goerr.HasTag(err, types.TagAuth) || goerr.HasTag(err, types.TagNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		defer rc.Close()

		written, err = writeAtomic(destPath, rc, asset.Size, 0644, onProgress)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		logger.Warn("retrying asset download",
			"asset", asset.Name,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, x.fetchRetries), ctx), notify); err != nil {
		return model.StagedFile{}, goerr.Wrap(err, "failed to fetch asset", goerr.V("asset", asset.Name))
	}

	logger.Debug("fetched asset", "asset", asset.Name, "bytes", written)

	return model.StagedFile{
		Name: asset.Name,
		Path: destPath,
		Size: written,
	}, nil
}
