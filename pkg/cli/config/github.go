package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// GitHub holds release repository configuration
type GitHub struct {
	Repo      string
	Tag       string
	Token     string
	Anonymous bool
	BaseURL   string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Release repository as owner/name",
			Destination: &c.Repo,
			Sources:     cli.EnvVars("SLIPWAY_REPO"),
		},
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "Release tag to install (default: latest release)",
			Destination: &c.Tag,
			Sources:     cli.EnvVars("SLIPWAY_TAG"),
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "GitHub token with read access to the release repository",
			Destination: &c.Token,
			Sources:     cli.EnvVars("SLIPWAY_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.BoolFlag{
			Name:        "anonymous",
			Usage:       "Access the release repository without a token (public repositories only)",
			Destination: &c.Anonymous,
			Sources:     cli.EnvVars("SLIPWAY_ANONYMOUS"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL for GitHub Enterprise",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("SLIPWAY_GITHUB_API_URL"),
		},
	}
}

// OwnerRepo splits Repo into its owner and name halves
func (c *GitHub) OwnerRepo() (string, string, error) {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", goerr.New("repository must be in owner/name form",
			goerr.V("repo", c.Repo), goerr.T(types.TagPreflight))
	}
	return owner, name, nil
}

// Validate rejects an unusable configuration before any network activity.
// Anonymous access has to be requested explicitly so a forgotten token does
// not surface later as a confusing not-found error against a private
// repository. Runs after the profile merge, so Required flags cannot do this.
func (c *GitHub) Validate() error {
	if c.Repo == "" {
		return goerr.New("a release repository is required (pass --repo owner/name)",
			goerr.T(types.TagPreflight))
	}
	if _, _, err := c.OwnerRepo(); err != nil {
		return err
	}
	if c.Token == "" && !c.Anonymous {
		return goerr.New("a GitHub token is required (pass --token, set GITHUB_TOKEN, or use --anonymous for public repositories)",
			goerr.T(types.TagPreflight))
	}
	return nil
}
