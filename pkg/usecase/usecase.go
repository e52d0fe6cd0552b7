package usecase

import (
	"context"
	"time"

	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// StoreFactory opens an object store for a parsed model source
type StoreFactory func(ctx context.Context, src *model.ModelSource) (interfaces.ObjectStore, error)

type installUseCase struct {
	releaseClient  interfaces.ReleaseClient
	extractors     []interfaces.ArchiveExtractor
	modelFetch     interfaces.ModelFetchUseCase
	progress       model.ProgressFunc
	fetchRetries   uint64
	attemptTimeout time.Duration
}

// Option is a functional option for the install use case
type Option func(*installUseCase)

// WithProgress registers a callback receiving progress events
func WithProgress(fn model.ProgressFunc) Option {
	return func(uc *installUseCase) {
		uc.progress = fn
	}
}

// WithModelFetch wires the model download step run after installation
func WithModelFetch(mf interfaces.ModelFetchUseCase) Option {
	return func(uc *installUseCase) {
		uc.modelFetch = mf
	}
}

// WithFetchRetries sets how many times a failed asset download is retried
func WithFetchRetries(n uint64) Option {
	return func(uc *installUseCase) {
		uc.fetchRetries = n
	}
}

// WithAttemptTimeout bounds a single download attempt
func WithAttemptTimeout(d time.Duration) Option {
	return func(uc *installUseCase) {
		uc.attemptTimeout = d
	}
}

// NewInstall creates a new instance of InstallUseCase
func NewInstall(releaseClient interfaces.ReleaseClient, extractors []interfaces.ArchiveExtractor, opts ...Option) interfaces.InstallUseCase {
	uc := &installUseCase{
		releaseClient:  releaseClient,
		extractors:     extractors,
		fetchRetries:   3,
		attemptTimeout: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}
