// Package storage provides object store adapters for the model artifact
// download. Buckets are addressed by URL scheme: s3:// for S3 and gs://
// for Cloud Storage.
package storage

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// Config carries the credentials for the supported backends. Empty fields
// fall back to each SDK's default credential chain.
type Config struct {
	AWSRegion       string
	AWSCreds        S3Credentials
	GoogleCredsFile string
}

// NewFromSource creates the object store matching the source scheme
func NewFromSource(ctx context.Context, src *model.ModelSource, cfg Config) (interfaces.ObjectStore, error) {
	switch src.Scheme {
	case "s3":
		return NewS3(ctx, src.Bucket, cfg.AWSRegion, cfg.AWSCreds)
	case "gs":
		return NewGCS(ctx, src.Bucket, cfg.GoogleCredsFile)
	default:
		return nil, goerr.New("unsupported object store scheme", goerr.V("scheme", src.Scheme))
	}
}
