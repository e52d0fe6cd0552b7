package model

// StagedFile represents a release asset downloaded into the run's
// staging directory
type StagedFile struct {
	Name string // Asset name, also the file name on disk
	Path string
	Size int64
}

// LogicalArchive is a single extractable archive, either a directly staged
// file or the in-order concatenation of a complete part set
type LogicalArchive struct {
	Name  string // Archive file name, e.g. "core.zip"
	Path  string
	Size  int64
	Parts int // Number of concatenated parts, 1 for plain files
}

// ExtractReport describes a completed extraction and layout normalization
type ExtractReport struct {
	Strategy    string // Name of the extraction strategy that succeeded
	Files       int
	Bytes       int64
	MarkerFound bool // An application root marker was located
	Flattened   bool // A nested layout was lifted to the staging root
}

// MergeStats counts what an overwrite-merge wrote into the target
type MergeStats struct {
	Files int
	Dirs  int
	Bytes int64
}
