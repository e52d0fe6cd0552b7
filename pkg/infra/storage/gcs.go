package storage

import (
	"context"
	"errors"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type gcsStore struct {
	client *gcs.Client
	bucket string
}

// NewGCS creates an ObjectStore backed by a Cloud Storage bucket.
// credentialsFile may be empty to use application default credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (interfaces.ObjectStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}

	return &gcsStore{
		client: client,
		bucket: bucket,
	}, nil
}

// List returns all objects under the prefix, following pagination
func (s *gcsStore) List(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	var objects []model.ObjectInfo

	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapGCSError(err, "failed to list objects", s.bucket, prefix)
		}
		objects = append(objects, model.ObjectInfo{
			Key:  attrs.Name,
			Size: attrs.Size,
		})
	}

	return objects, nil
}

// Get opens a stream for one object
func (s *gcsStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, 0, wrapGCSError(err, "failed to get object", s.bucket, key)
	}
	return r, r.Attrs.Size, nil
}

// wrapGCSError attaches error tags derived from the API response
func wrapGCSError(err error, msg, bucket, name string) error {
	opts := []goerr.Option{goerr.V("bucket", bucket), goerr.V("name", name)}

	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		opts = append(opts, goerr.T(types.TagNotFound))
		return goerr.Wrap(err, msg, opts...)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		opts = append(opts, goerr.V("status", apiErr.Code))
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			opts = append(opts, goerr.T(types.TagAuth))
		case http.StatusNotFound:
			opts = append(opts, goerr.T(types.TagNotFound))
		}
	}

	return goerr.Wrap(err, msg, opts...)
}
