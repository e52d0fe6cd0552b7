package config

import (
	"github.com/urfave/cli/v3"

	"github.com/slipway-sh/slipway/pkg/infra/storage"
)

// DefaultModelSource is the bundled model artifact location used when no
// source is configured
const DefaultModelSource = "s3://rfq-models/Mistral-7B-Instruct-v0-3/"

// Storage holds object storage configuration for the model artifact
type Storage struct {
	ModelSource     string
	SkipModel       bool
	Concurrency     int
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretKey    string
	AWSSessionToken string
	GoogleCredsFile string
}

// Flags returns CLI flags for object storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model-source",
			Usage:       "Model artifact location as s3://bucket/prefix or gs://bucket/prefix",
			Destination: &c.ModelSource,
			Sources:     cli.EnvVars("SLIPWAY_MODEL_SOURCE"),
		},
		&cli.BoolFlag{
			Name:        "skip-model",
			Usage:       "Install without downloading the model artifact",
			Destination: &c.SkipModel,
			Sources:     cli.EnvVars("SLIPWAY_SKIP_MODEL"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Parallel object downloads for the model artifact (default: 4)",
			Destination: &c.Concurrency,
			Sources:     cli.EnvVars("SLIPWAY_CONCURRENCY"),
		},
		&cli.StringFlag{
			Name:        "aws-region",
			Usage:       "AWS region of the model bucket",
			Destination: &c.AWSRegion,
			Sources:     cli.EnvVars("SLIPWAY_AWS_REGION", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:        "aws-access-key-id",
			Usage:       "AWS access key for the model bucket (default: SDK credential chain)",
			Destination: &c.AWSAccessKeyID,
			Sources:     cli.EnvVars("SLIPWAY_AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"),
		},
		&cli.StringFlag{
			Name:        "aws-secret-access-key",
			Usage:       "AWS secret key for the model bucket",
			Destination: &c.AWSSecretKey,
			Sources:     cli.EnvVars("SLIPWAY_AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"),
		},
		&cli.StringFlag{
			Name:        "aws-session-token",
			Usage:       "AWS session token for temporary credentials",
			Destination: &c.AWSSessionToken,
			Sources:     cli.EnvVars("SLIPWAY_AWS_SESSION_TOKEN", "AWS_SESSION_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "google-credentials",
			Usage:       "Service account JSON file for gs:// sources",
			Destination: &c.GoogleCredsFile,
			Sources:     cli.EnvVars("SLIPWAY_GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"),
		},
	}
}

// EffectiveSource resolves the model source after the profile merge.
// Skipping wins over any configured source; an empty source falls back
// to the bundled default so a plain install still gets the model.
func (c *Storage) EffectiveSource() string {
	if c.SkipModel {
		return ""
	}
	if c.ModelSource == "" {
		return DefaultModelSource
	}
	return c.ModelSource
}

// StoreConfig converts the flag values into the storage factory's config
func (c *Storage) StoreConfig() storage.Config {
	return storage.Config{
		AWSRegion: c.AWSRegion,
		AWSCreds: storage.S3Credentials{
			AccessKeyID:     c.AWSAccessKeyID,
			SecretAccessKey: c.AWSSecretKey,
			SessionToken:    c.AWSSessionToken,
		},
		GoogleCredsFile: c.GoogleCredsFile,
	}
}
