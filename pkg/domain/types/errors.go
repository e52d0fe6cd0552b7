package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so the orchestrator and the CLI can decide
// whether a component is skipped, the run aborts, or the user gets
// credential guidance.
var (
	// TagSkip marks recoverable component-level failures. The component is
	// recorded as skipped and the run continues.
	TagSkip = goerr.NewTag("skip")

	// TagFatal marks failures that abort the whole run.
	TagFatal = goerr.NewTag("fatal")

	// TagAuth marks authentication and authorization failures against the
	// release index or object storage.
	TagAuth = goerr.NewTag("auth")

	// TagNotFound marks a missing repository, release, or object.
	TagNotFound = goerr.NewTag("not_found")

	// TagPreflight marks rejections raised before any network activity.
	TagPreflight = goerr.NewTag("preflight")

	// TagIntegrity marks inconsistent inputs such as malformed part sets.
	TagIntegrity = goerr.NewTag("integrity")
)

// Sentinel errors used as gate decisions in the install pipeline.
var (
	ErrPartMissing     = goerr.New("declared part is not staged", goerr.T(TagSkip))
	ErrDuplicatePart   = goerr.New("duplicate part number in part set", goerr.T(TagIntegrity))
	ErrPartNamePattern = goerr.New("file name does not match part naming pattern", goerr.T(TagIntegrity))
	ErrManifestMissing = goerr.New("manifest.json not found in release assets", goerr.T(TagFatal))
	ErrNoExtractor     = goerr.New("all extraction strategies failed", goerr.T(TagFatal))
	ErrMarkerNotFound  = goerr.New("no layout marker found in extracted tree")
)
