package interfaces

import (
	"context"
	"io"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// ObjectStore defines read access to a model artifact bucket
type ObjectStore interface {
	// List returns all objects under the prefix, following pagination
	List(ctx context.Context, prefix string) ([]model.ObjectInfo, error)

	// Get opens a stream for one object. The caller must close the
	// returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
}
