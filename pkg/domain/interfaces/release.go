package interfaces

import (
	"context"
	"io"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// ReleaseClient defines operations against the release index
type ReleaseClient interface {
	// GetReleaseByTag fetches the release published under the given tag
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*model.ReleaseDescriptor, error)

	// GetLatestRelease fetches the most recent published release
	GetLatestRelease(ctx context.Context, owner, repo string) (*model.ReleaseDescriptor, error)

	// DownloadAsset opens a stream for the raw content of a release asset.
	// The caller must close the returned reader.
	DownloadAsset(ctx context.Context, owner, repo string, assetID int64) (io.ReadCloser, error)
}
