package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/slipway-sh/slipway/pkg/cli/config"
	"github.com/slipway-sh/slipway/pkg/controller/console"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/infra/storage"
	"github.com/slipway-sh/slipway/pkg/usecase"
	"github.com/slipway-sh/slipway/pkg/utils/envfile"
)

func cmdFetchModel() *cli.Command {
	var (
		storageCfg config.Storage
		dest       string
		noColor    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dest",
			Usage:       "Directory the model files are written into",
			Required:    true,
			Destination: &dest,
			Sources:     cli.EnvVars("SLIPWAY_MODEL_DEST"),
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored output",
			Destination: &noColor,
			Sources:     cli.EnvVars("SLIPWAY_NO_COLOR"),
		},
	}
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:  "fetch-model",
		Usage: "Download the model artifact without installing a release",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if storageCfg.SkipModel {
				return goerr.New("--skip-model makes no sense for fetch-model")
			}
			applyEnvFileCredentials(ctx, &storageCfg, dest)
			source := storageCfg.EffectiveSource()

			reporter := console.New(console.WithColor(!noColor))

			storeFactory := func(ctx context.Context, src *model.ModelSource) (interfaces.ObjectStore, error) {
				return storage.NewFromSource(ctx, src, storageCfg.StoreConfig())
			}
			uc := usecase.NewModelFetch(storeFactory, usecase.WithModelProgress(reporter.Progress()))

			logger.Info("Starting model download",
				slog.String("source", source),
				slog.String("dest", dest),
			)

			result, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
				Source:      source,
				Dest:        dest,
				Concurrency: storageCfg.Concurrency,
			})
			if err != nil {
				reporter.Failure(err)
				return err
			}

			logger.Info("Model download complete",
				slog.String("model", result.Model),
				slog.Int("files", result.Files),
				slog.String("bytes", humanize.Bytes(uint64(result.Bytes))),
				slog.Bool("fallback", result.Fallback),
			)
			return nil
		},
	}
}

// applyEnvFileCredentials fills still-empty AWS settings from a .env next
// to or above the destination, the file a previous install wrote. Flags
// and process environment always win.
func applyEnvFileCredentials(ctx context.Context, cfg *config.Storage, dest string) {
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretKey != "" {
		return
	}

	for _, dir := range []string{dest, filepath.Dir(dest)} {
		path := filepath.Join(dir, ".env")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		env, err := envfile.Parse(string(data))
		if err != nil {
			continue
		}

		if cfg.AWSAccessKeyID == "" {
			cfg.AWSAccessKeyID = env["AWS_ACCESS_KEY_ID"]
		}
		if cfg.AWSSecretKey == "" {
			cfg.AWSSecretKey = env["AWS_SECRET_ACCESS_KEY"]
		}
		if cfg.AWSSessionToken == "" {
			cfg.AWSSessionToken = env["AWS_SESSION_TOKEN"]
		}
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = env["AWS_REGION"]
		}

		ctxlog.From(ctx).Debug("applied credentials from env file", "path", path)
		return
	}
}
