package console

import (
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/types"
)

// Remediation maps a fatal error to guidance the user can act on.
// Returns an empty string when there is nothing better to say than the
// error itself.
func Remediation(err error) string {
	switch {
	case goerr.HasTag(err, types.TagAuth):
		if isStorageFailure(err) {
			return storageAuthHint
		}
		return githubAuthHint

	case errors.Is(err, types.ErrManifestMissing):
		return manifestHint

	case errors.Is(err, types.ErrNoExtractor):
		return extractorHint

	case goerr.HasTag(err, types.TagNotFound):
		if isStorageFailure(err) {
			return storageNotFoundHint
		}
		return githubNotFoundHint

	case goerr.HasTag(err, types.TagPreflight):
		return preflightHint
	}

	return ""
}

// isStorageFailure separates object storage failures from release API
// failures; both can carry the same auth tag
func isStorageFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "model") || strings.Contains(msg, "bucket")
}

const githubAuthHint = `The release service rejected your token.
  - Check that the token was pasted completely and has not expired.
  - The token needs read access to the release repository (repo scope
    for classic tokens, Contents: read for fine-grained tokens).
  - Generate a new token and retry with --token or GITHUB_TOKEN.`

const githubNotFoundHint = `The release could not be found.
  - Check the --repo value (owner/name) and the --tag spelling.
  - For private repositories a missing token also looks like "not
    found"; retry with a valid --token.`

const storageAuthHint = `Object storage denied the model download.
Required AWS IAM permissions:
  - s3:ListBucket on the model bucket
  - s3:GetObject on the model prefix
Contact your administrator to grant these, or pass credentials with
--aws-access-key-id / --aws-secret-access-key (or a GCS service
account via --google-credentials for gs:// sources).`

const storageNotFoundHint = `No model files were found at the source.
  - Check the --model-source URL (bucket and prefix).
  - Pass --skip-model to install without the model artifact.`

const manifestHint = `The release has no manifest.json asset, so it is
not an installable bundle. Check that the tag points at a packaged
release, not a source-only tag.`

const extractorHint = `No extraction strategy could unpack the archive.
Install unzip or bsdtar and retry; the built-in extractor only covers
well-formed zip and tar.gz archives.`

const preflightHint = `Not enough free disk space for this release.
Free up space on the target volume, choose another --dest, or rerun
with --force to attempt the installation anyway.`
