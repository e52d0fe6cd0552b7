package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/slipway-sh/slipway/pkg/cli/config"
	"github.com/slipway-sh/slipway/pkg/controller/console"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
	"github.com/slipway-sh/slipway/pkg/infra/archive"
	githubinfra "github.com/slipway-sh/slipway/pkg/infra/github"
	"github.com/slipway-sh/slipway/pkg/infra/storage"
	"github.com/slipway-sh/slipway/pkg/usecase"
)

func cmdInstall() *cli.Command {
	var (
		githubCfg   config.GitHub
		installCfg  config.Install
		dbCfg       config.Database
		storageCfg  config.Storage
		profilePath string
		noColor     bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "TOML answer file for unattended installs",
			Destination: &profilePath,
			Sources:     cli.EnvVars("SLIPWAY_PROFILE"),
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored output",
			Destination: &noColor,
			Sources:     cli.EnvVars("SLIPWAY_NO_COLOR"),
		},
	}
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, installCfg.Flags()...)
	flags = append(flags, dbCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:    "install",
		Aliases: []string{"i"},
		Usage:   "Install a packaged release into a target directory",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if profilePath != "" {
				profile, err := config.LoadProfile(profilePath)
				if err != nil {
					return err
				}
				profile.Apply(&githubCfg, &installCfg, &dbCfg, &storageCfg)
				logger.Info("Loaded install profile", slog.String("path", profilePath))
			}
			installCfg.ApplyDefaults()

			if err := githubCfg.Validate(); err != nil {
				return err
			}
			owner, repo, err := githubCfg.OwnerRepo()
			if err != nil {
				return err
			}

			reporter := console.New(console.WithColor(!noColor))

			var ghOpts []githubinfra.Option
			if githubCfg.BaseURL != "" {
				ghOpts = append(ghOpts, githubinfra.WithBaseURL(githubCfg.BaseURL))
			}
			releaseClient := githubinfra.NewClient(githubCfg.Token, ghOpts...)

			opts := []usecase.Option{
				usecase.WithProgress(reporter.Progress()),
			}

			modelSource := storageCfg.EffectiveSource()
			if modelSource != "" {
				storeFactory := func(ctx context.Context, src *model.ModelSource) (interfaces.ObjectStore, error) {
					return storage.NewFromSource(ctx, src, storageCfg.StoreConfig())
				}
				opts = append(opts, usecase.WithModelFetch(
					usecase.NewModelFetch(storeFactory, usecase.WithModelProgress(reporter.Progress())),
				))
			}

			uc := usecase.NewInstall(releaseClient, archive.DefaultChain(), opts...)

			// The installed application updates itself with its own token,
			// falling back to the one used for this install
			updateToken := installCfg.UpdateToken
			if updateToken == "" {
				updateToken = githubCfg.Token
			}

			req := &model.InstallRequest{
				Owner:      owner,
				Repo:       repo,
				Tag:        githubCfg.Tag,
				Target:     installCfg.Dest,
				StagingDir: installCfg.StagingDir,
				Markers:    installCfg.Markers(),
				Force:      installCfg.Force,
				Env: model.EnvSettings{
					UpdateToken:     updateToken,
					InstallMode:     installCfg.InstallMode,
					DBUser:          dbCfg.User,
					DBPassword:      dbCfg.Password,
					DBAdminPassword: dbCfg.AdminPassword,
				},
				ModelSource:      modelSource,
				ModelConcurrency: storageCfg.Concurrency,
			}

			logger.Info("Starting installation",
				slog.String("repo", githubCfg.Repo),
				slog.String("tag", githubCfg.Tag),
				slog.String("dest", installCfg.Dest),
			)

			summary, err := uc.Install(ctx, req)
			if err != nil {
				reporter.Failure(err)
				return err
			}

			reporter.Summary(summary)

			// Partial success still exits zero; a failed component does not
			if summary.State() == model.RunFailed {
				return goerr.New("one or more components failed to install",
					goerr.T(types.TagFatal))
			}
			return nil
		},
	}
}
