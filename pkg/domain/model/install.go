package model

// LayoutMarkers configures how the extractor recognizes the application
// root inside an extracted tree
type LayoutMarkers struct {
	Extensions []string // Marker file extensions, e.g. ".exe"
	Dirs       []string // Marker directory names, e.g. "_internal"
}

// DefaultLayoutMarkers returns the markers of a bundled desktop payload:
// a top-level executable next to its dependency directory
func DefaultLayoutMarkers() LayoutMarkers {
	return LayoutMarkers{
		Extensions: []string{".exe"},
		Dirs:       []string{"_internal"},
	}
}

// EnvSettings are the values written into the installed application's
// .env file
type EnvSettings struct {
	UpdateToken     string // Token the installed application uses for updates
	InstallMode     string
	DBUser          string
	DBPassword      string
	DBAdminPassword string
	ModelsDir       string
}

// InstallRequest carries everything one installation run needs
type InstallRequest struct {
	Owner      string
	Repo       string
	Tag        string // Empty selects the latest release
	Target     string // Installation target directory
	StagingDir string // Base directory for staging, empty for the OS temp dir
	Markers    LayoutMarkers
	Force      bool // Proceed past soft pre-flight failures
	Env        EnvSettings

	// ModelSource is an s3:// or gs:// URL. Empty disables the model step.
	ModelSource      string
	ModelConcurrency int
}
