package usecase

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// preflight verifies the run can plausibly complete before any bytes
// move: the target must be creatable and the disk must hold roughly
// twice the release's asset bytes, since staged archives and their
// extracted trees coexist until per-component cleanup. Force downgrades
// a failed space check to a warning; an unreadable filesystem stat is
// never fatal on its own.
func (x *installUseCase) preflight(ctx context.Context, req *model.InstallRequest, release *model.ReleaseDescriptor) error {
	logger := ctxlog.From(ctx)

	if err := os.MkdirAll(req.Target, 0755); err != nil {
		return goerr.Wrap(err, "target directory is not writable",
			goerr.V("target", req.Target),
			goerr.T(types.TagPreflight),
		)
	}

	var need uint64
	for _, asset := range release.Assets {
		if asset.Size > 0 {
			need += uint64(asset.Size)
		}
	}
	need *= 2

	free, err := freeDiskSpace(req.Target)
	if err != nil {
		logger.Warn("could not determine free disk space", "target", req.Target, "error", err)
		return nil
	}

	logger.Debug("disk space check", "free", free, "need", need)

	if free < need {
		if req.Force {
			logger.Warn("insufficient disk space, continuing due to force",
				"free", free,
				"need", need,
			)
			return nil
		}
		return goerr.New("insufficient disk space",
			goerr.V("target", req.Target),
			goerr.V("free", free),
			goerr.V("need", need),
			goerr.T(types.TagPreflight),
		)
	}

	return nil
}
