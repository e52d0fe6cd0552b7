// Package archive provides the extraction strategies used to unpack
// release payloads. External archiver commands are preferred for speed and
// format coverage; the built-in Go extractors guarantee a working fallback
// on hosts without any archiver installed.
package archive

import "github.com/slipway-sh/slipway/pkg/domain/interfaces"

// DefaultChain returns the extraction strategies in preference order
func DefaultChain() []interfaces.ArchiveExtractor {
	return []interfaces.ArchiveExtractor{
		NewUnzipCommand(),
		NewTarCommand(),
		NewBsdtarCommand(),
		NewZipExtractor(),
		NewTarGzExtractor(),
	}
}
