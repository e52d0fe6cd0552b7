package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// Install runs the whole pipeline: resolve the release, check
// preconditions, then fetch, reassemble, extract and merge each
// manifest component in order, finishing with the target's runtime
// configuration and the optional model download. The returned summary
// is populated as far as the run got, including when an error is also
// returned.
func (x *installUseCase) Install(ctx context.Context, req *model.InstallRequest) (*model.RunSummary, error) {
	logger := ctxlog.From(ctx)

	summary := &model.RunSummary{
		RunID:     uuid.NewString(),
		Target:    req.Target,
		StartedAt: time.Now(),
	}
	defer func() {
		summary.FinishedAt = time.Now()
	}()

	logger.Info("starting installation",
		"run_id", summary.RunID,
		"repo", req.Owner+"/"+req.Repo,
		"target", req.Target,
	)

	x.progress.Report(model.ProgressEvent{Phase: model.PhaseResolve, Message: "resolving release"})

	release, err := x.lookupRelease(ctx, req)
	if err != nil {
		return summary, err
	}
	summary.Tag = release.Tag

	if err := x.preflight(ctx, req, release); err != nil {
		return summary, err
	}

	stagingRoot, err := x.createStagingRoot(req, summary.RunID)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := os.RemoveAll(stagingRoot); err != nil {
			logger.Warn("failed to clean staging dir", "dir", stagingRoot, "error", err)
		}
	}()

	manifest, err := x.fetchManifest(ctx, req, release, stagingRoot)
	if err != nil {
		return summary, err
	}

	logger.Info("parsed manifest", "components", len(manifest.Components))

	index := release.AssetIndex()
	for i, comp := range manifest.Components {
		result, fatalErr := x.installComponent(ctx, req, index, comp, stagingRoot, i, len(manifest.Components))
		summary.Results = append(summary.Results, result)
		if fatalErr != nil {
			return summary, fatalErr
		}
	}

	x.progress.Report(model.ProgressEvent{Phase: model.PhaseConfigure, Message: "writing runtime configuration"})

	if err := x.writeEnvFile(ctx, req); err != nil {
		return summary, err
	}
	if err := x.writeVersionFile(ctx, req.Target, release.Tag); err != nil {
		return summary, err
	}

	if req.ModelSource != "" {
		if x.modelFetch == nil {
			return summary, goerr.New("model download requested but not configured", goerr.T(types.TagFatal))
		}

		res, err := x.modelFetch.FetchModel(ctx, &model.ModelFetchRequest{
			Source:      req.ModelSource,
			Dest:        modelsDirFor(req),
			Concurrency: req.ModelConcurrency,
		})
		if err != nil {
			return summary, goerr.Wrap(err, "model download failed")
		}
		summary.Model = res
	}

	logger.Info("installation finished",
		"state", summary.State(),
		"extracted", summary.Extracted(),
		"skipped", summary.Skipped(),
	)

	return summary, nil
}

func (x *installUseCase) createStagingRoot(req *model.InstallRequest, runID string) (string, error) {
	base := req.StagingDir
	if base == "" {
		base = os.TempDir()
	}

	root := filepath.Join(base, "slipway-"+runID)
	if err := os.MkdirAll(root, 0700); err != nil {
		return "", goerr.Wrap(err, "failed to create staging dir", goerr.V("dir", root))
	}

	return root, nil
}

// installComponent runs one component through the pipeline. The second
// return value is non-nil only for failures that must abort the whole
// run; recoverable outcomes are encoded in the result's status.
func (x *installUseCase) installComponent(ctx context.Context, req *model.InstallRequest, index map[string]model.Asset, comp model.ComponentSpec, stagingRoot string, pos, total int) (model.ComponentResult, error) {
	logger := ctxlog.From(ctx)
	result := model.ComponentResult{Component: comp.Name}

	logger.Info("installing component", "component", comp.Name, "position", fmt.Sprintf("%d/%d", pos+1, total))

	if len(comp.Files) == 0 {
		logger.Info("component declares no files, skipping", "component", comp.Name)
		result.Status = model.StatusSkippedEmpty
		result.Stage = model.StageResolve
		return result, nil
	}

	compDir := filepath.Join(stagingRoot, fmt.Sprintf("%d-%s", pos+1, sanitizeName(comp.Name)))
	partsDir := filepath.Join(compDir, "parts")
	archiveDir := filepath.Join(compDir, "archive")
	treeDir := filepath.Join(compDir, "tree")
	for _, dir := range []string{partsDir, archiveDir, treeDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			result.Status = model.StatusFailed
			result.Stage = model.StageFetch
			result.Err = err
			return result, goerr.Wrap(err, "failed to create component staging dir", goerr.V("dir", dir))
		}
	}
	defer func() {
		if err := os.RemoveAll(compDir); err != nil {
			logger.Warn("failed to clean component staging dir", "dir", compDir, "error", err)
		}
	}()

	// Fetch whatever the release can serve; the completeness gate at
	// reassembly decides what a missing file means.
	result.Stage = model.StageFetch
	resolved := ResolveComponent(comp, index)
	staged := make(map[string]model.StagedFile, len(resolved))
	for i, rf := range resolved {
		if rf.Missing {
			logger.Warn("release has no asset for declared file", "component", comp.Name, "filename", rf.Name)
			continue
		}

		ev := model.ProgressEvent{
			Phase:      model.PhaseFetch,
			Component:  comp.Name,
			Item:       rf.Name,
			ItemIndex:  i + 1,
			ItemCount:  len(resolved),
			BytesTotal: rf.Asset.Size,
		}
		x.progress.Report(ev)

		sf, err := x.fetchAsset(ctx, req, rf.Asset, partsDir, func(done int64) {
			ev.BytesDone = done
			x.progress.Report(ev)
		})
		if err != nil {
			if ctx.Err() != nil {
				result.Status = model.StatusFailed
				result.Err = err
				return result, goerr.Wrap(err, "installation canceled")
			}
			logger.Warn("failed to fetch asset", "component", comp.Name, "filename", rf.Name, "error", err)
			continue
		}
		staged[sf.Name] = sf
	}

	result.Stage = model.StageReassemble
	x.progress.Report(model.ProgressEvent{Phase: model.PhaseReassemble, Component: comp.Name})

	archive, err := Reassemble(ctx, comp, staged, archiveDir)
	if err != nil {
		if errors.Is(err, types.ErrPartMissing) {
			logger.Warn("component is incomplete, skipping", "component", comp.Name, "error", err)
			result.Status = model.StatusSkippedIncomplete
			result.Err = err
			return result, nil
		}

		// Integrity violations fail the component but nothing has
		// touched the target yet, so the run goes on.
		logger.Error("component failed reassembly", "component", comp.Name, "error", err)
		result.Status = model.StatusFailed
		result.Err = err
		return result, nil
	}

	result.Stage = model.StageExtract
	x.progress.Report(model.ProgressEvent{Phase: model.PhaseExtract, Component: comp.Name, Item: archive.Name})

	strategy, err := x.extractArchive(ctx, archive, treeDir)
	if err != nil {
		result.Status = model.StatusFailed
		result.Err = err
		return result, goerr.Wrap(err, "failed to extract component", goerr.V("component", comp.Name))
	}
	result.Strategy = strategy

	extractedFiles, extractedBytes := countTree(treeDir)
	logger.Debug("extracted archive",
		"archive", archive.Name,
		"strategy", strategy,
		"files", extractedFiles,
		"bytes", extractedBytes,
	)

	report, err := NormalizeLayout(ctx, treeDir, req.Markers)
	if err != nil {
		if errors.Is(err, types.ErrMarkerNotFound) {
			logger.Warn("no layout marker in extracted tree, merging as-is", "component", comp.Name)
		} else {
			result.Status = model.StatusFailed
			result.Err = err
			return result, goerr.Wrap(err, "failed to normalize layout", goerr.V("component", comp.Name))
		}
	} else if report.Flattened {
		logger.Debug("flattened extracted tree", "component", comp.Name)
	}

	result.Stage = model.StageMerge
	x.progress.Report(model.ProgressEvent{Phase: model.PhaseMerge, Component: comp.Name})

	stats, err := MergeTree(ctx, treeDir, req.Target)
	if err != nil {
		result.Status = model.StatusFailed
		result.Err = err
		return result, goerr.Wrap(err, "failed to merge component", goerr.V("component", comp.Name))
	}

	result.Status = model.StatusExtracted
	result.Files = stats.Files
	result.Bytes = stats.Bytes

	logger.Info("component installed",
		"component", comp.Name,
		"strategy", strategy,
		"files", stats.Files,
		"bytes", stats.Bytes,
	)

	return result, nil
}

func modelsDirFor(req *model.InstallRequest) string {
	if req.Env.ModelsDir != "" {
		return req.Env.ModelsDir
	}
	return filepath.Join(req.Target, "models")
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, name)
}
