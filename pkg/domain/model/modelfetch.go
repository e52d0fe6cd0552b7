package model

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ObjectInfo describes one stored object under the model prefix
type ObjectInfo struct {
	Key  string
	Size int64
}

// ModelSource is a parsed object storage location
type ModelSource struct {
	Scheme string // "s3" or "gs"
	Bucket string
	Prefix string // Normalized to end with "/" when non-empty
}

// ParseModelSource parses an s3:// or gs:// URL into bucket and prefix
func ParseModelSource(raw string) (*ModelSource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid model source URL", goerr.V("url", raw))
	}

	switch u.Scheme {
	case "s3", "gs":
	default:
		return nil, goerr.New("model source must be an s3:// or gs:// URL", goerr.V("url", raw))
	}
	if u.Host == "" {
		return nil, goerr.New("model source is missing a bucket name", goerr.V("url", raw))
	}

	prefix := strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &ModelSource{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Prefix: prefix,
	}, nil
}

// Name derives the local directory name of the model from the prefix
func (s *ModelSource) Name() string {
	trimmed := strings.TrimSuffix(s.Prefix, "/")
	if trimmed == "" {
		return s.Bucket
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// String renders the source back into URL form
func (s *ModelSource) String() string {
	return s.Scheme + "://" + s.Bucket + "/" + s.Prefix
}

// ModelFetchRequest asks for a model directory download from object storage
type ModelFetchRequest struct {
	Source      string // s3://bucket/prefix/ or gs://bucket/prefix/
	Dest        string // Directory the model files are written into
	Concurrency int    // Parallel object downloads, <=0 for the default
}

// ModelFetchResult summarizes a completed model download
type ModelFetchResult struct {
	Model    string // Model name derived from the source prefix
	Files    int
	Bytes    int64
	Skipped  int  // Objects filtered out as cache or lock debris
	Fallback bool // Listing was denied and the index-based fallback ran
}
