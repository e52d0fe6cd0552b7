package usecase

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// ResolvedFile pairs a declared manifest file with the release asset
// that carries it. Missing is set when the release has no asset of
// that name.
type ResolvedFile struct {
	Name    string
	Asset   model.Asset
	Missing bool
}

// ResolveComponent maps a component's declared file names onto the
// release's assets. Unresolvable names are returned as Missing entries
// rather than errors; the reassembly stage decides what an absent file
// means for the component.
func ResolveComponent(spec model.ComponentSpec, index map[string]model.Asset) []ResolvedFile {
	resolved := make([]ResolvedFile, 0, len(spec.Files))
	for _, f := range spec.Files {
		asset, ok := index[f.Filename]
		resolved = append(resolved, ResolvedFile{
			Name:    f.Filename,
			Asset:   asset,
			Missing: !ok,
		})
	}
	return resolved
}

func (x *installUseCase) lookupRelease(ctx context.Context, req *model.InstallRequest) (*model.ReleaseDescriptor, error) {
	logger := ctxlog.From(ctx)

	if req.Tag != "" {
		release, err := x.releaseClient.GetReleaseByTag(ctx, req.Owner, req.Repo, req.Tag)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get release by tag", goerr.V("tag", req.Tag))
		}
		logger.Info("resolved release", "tag", release.Tag, "assets", len(release.Assets))
		return release, nil
	}

	release, err := x.releaseClient.GetLatestRelease(ctx, req.Owner, req.Repo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest release")
	}
	logger.Info("resolved latest release", "tag", release.Tag, "assets", len(release.Assets))
	return release, nil
}

func (x *installUseCase) fetchManifest(ctx context.Context, req *model.InstallRequest, release *model.ReleaseDescriptor, stagingDir string) (*model.Manifest, error) {
	asset, ok := release.FindAsset(model.ManifestAssetName)
	if !ok {
		return nil, goerr.Wrap(types.ErrManifestMissing, "release has no manifest asset",
			goerr.V("tag", release.Tag),
		)
	}

	staged, err := x.fetchAsset(ctx, req, asset, stagingDir, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch manifest")
	}

	data, err := os.ReadFile(staged.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read staged manifest")
	}

	manifest, err := model.ParseManifest(data)
	if err != nil {
		return nil, goerr.Wrap(err, "malformed manifest", goerr.T(types.TagFatal))
	}

	return manifest, nil
}
