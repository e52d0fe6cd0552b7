package interfaces

import (
	"context"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// InstallUseCase defines the full installation run
type InstallUseCase interface {
	// Install resolves the release, installs every manifest component and
	// finalizes the target directory. A non-nil summary is returned even
	// when err is set, covering the components processed so far.
	Install(ctx context.Context, req *model.InstallRequest) (*model.RunSummary, error)
}

// ModelFetchUseCase defines the standalone model artifact download
type ModelFetchUseCase interface {
	// FetchModel downloads the model directory described by the request
	FetchModel(ctx context.Context, req *model.ModelFetchRequest) (*model.ModelFetchResult, error)
}
