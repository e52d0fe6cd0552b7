package interfaces

import "context"

// ArchiveExtractor is one strategy for unpacking an archive. Strategies are
// tried in order; the first success wins.
type ArchiveExtractor interface {
	// Name identifies the strategy in results and logs
	Name() string

	// Available reports whether the strategy can run on this host
	Available() bool

	// Supports reports whether the strategy handles the archive format,
	// judged by file name
	Supports(filename string) bool

	// Extract unpacks the archive into destDir
	Extract(ctx context.Context, archivePath, destDir string) error
}
