package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// Reassemble validates that every file a component declares has been
// staged and produces the component's logical archive. A single-file
// component passes through without copying; a split archive is
// concatenated part by part in ascending numeric order into destDir.
// Any declared file absent from staged fails the completeness gate
// with ErrPartMissing.
func Reassemble(ctx context.Context, spec model.ComponentSpec, staged map[string]model.StagedFile, destDir string) (*model.LogicalArchive, error) {
	set, err := model.PlanPartSet(spec.Files)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid file declaration", goerr.V("component", spec.Name))
	}

	if !set.Split() {
		sf, ok := staged[set.Base]
		if !ok {
			return nil, goerr.Wrap(types.ErrPartMissing, "declared file was not staged",
				goerr.V("component", spec.Name),
				goerr.V("filename", set.Base),
			)
		}
		return &model.LogicalArchive{
			Name:  sf.Name,
			Path:  sf.Path,
			Size:  sf.Size,
			Parts: 1,
		}, nil
	}

	parts := make([]model.StagedFile, 0, len(set.Parts))
	for _, ref := range set.Parts {
		sf, ok := staged[ref.Name]
		if !ok {
			return nil, goerr.Wrap(types.ErrPartMissing, "part was not staged",
				goerr.V("component", spec.Name),
				goerr.V("filename", ref.Name),
				goerr.V("part", ref.Num),
			)
		}
		parts = append(parts, sf)
	}

	ctxlog.From(ctx).Debug("reassembling split archive",
		"component", spec.Name,
		"archive", set.Base,
		"parts", len(parts),
	)

	archivePath := filepath.Join(destDir, set.Base)
	size, err := concatParts(ctx, archivePath, parts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reassemble archive",
			goerr.V("component", spec.Name),
			goerr.V("archive", set.Base),
		)
	}

	return &model.LogicalArchive{
		Name:  set.Base,
		Path:  archivePath,
		Size:  size,
		Parts: len(parts),
	}, nil
}

func concatParts(ctx context.Context, destPath string, parts []model.StagedFile) (int64, error) {
	tmpPath := destPath + partialSuffix

	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create archive file", goerr.V("path", tmpPath))
	}

	var total int64
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
			return 0, goerr.Wrap(err, "reassembly canceled")
		}

		n, err := appendPart(out, part.Path)
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
			return 0, goerr.Wrap(err, "failed to append part", goerr.V("part", part.Name))
		}
		total += n
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to sync archive", goerr.V("path", tmpPath))
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to close archive", goerr.V("path", tmpPath))
	}

	if total == 0 {
		_ = os.Remove(tmpPath)
		return 0, goerr.New("reassembled archive is empty", goerr.T(types.TagIntegrity))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, goerr.Wrap(err, "failed to finalize archive", goerr.V("path", destPath))
	}

	return total, nil
}

func appendPart(out io.Writer, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	return io.Copy(out, in)
}
