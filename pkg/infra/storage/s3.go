package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// S3Credentials carries static credentials. Empty fields fall back to the
// default AWS credential chain (environment, shared config, instance role).
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

type s3Store struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an ObjectStore backed by an S3 bucket
func NewS3(ctx context.Context, bucket, region string, creds S3Credentials) (interfaces.ObjectStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS configuration")
	}

	return &s3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// List returns all objects under the prefix, following pagination
func (s *s3Store) List(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	var objects []model.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapS3Error(err, "failed to list objects", s.bucket, prefix)
		}
		for _, obj := range page.Contents {
			objects = append(objects, model.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	return objects, nil
}

// Get opens a stream for one object
func (s *s3Store) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, wrapS3Error(err, "failed to get object", s.bucket, key)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// wrapS3Error attaches error tags derived from the S3 API error code
func wrapS3Error(err error, msg, bucket, name string) error {
	opts := []goerr.Option{goerr.V("bucket", bucket), goerr.V("name", name)}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		opts = append(opts, goerr.V("code", apiErr.ErrorCode()))
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			opts = append(opts, goerr.T(types.TagAuth))
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			opts = append(opts, goerr.T(types.TagNotFound))
		}
	}

	return goerr.Wrap(err, msg, opts...)
}
