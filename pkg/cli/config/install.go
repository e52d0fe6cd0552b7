package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/urfave/cli/v3"

	"github.com/slipway-sh/slipway/pkg/domain/model"
)

// DefaultInstallMode is written into the target's .env when the caller
// does not choose a mode
const DefaultInstallMode = "standard"

// DefaultDest is the installation target used when neither a flag nor a
// profile names one
func DefaultDest() string {
	return filepath.Join(xdg.DataHome, "slipway", "app")
}

// Install holds target directory and merge behavior configuration.
// Dest and InstallMode stay empty when unset so a profile can fill them;
// ApplyDefaults resolves whatever is still empty after the merge.
type Install struct {
	Dest        string
	StagingDir  string
	Force       bool
	InstallMode string
	UpdateToken string
	MarkerExts  []string
	MarkerDirs  []string
}

// ApplyDefaults fills the fields neither a flag nor a profile set
func (c *Install) ApplyDefaults() {
	if c.Dest == "" {
		c.Dest = DefaultDest()
	}
	if c.InstallMode == "" {
		c.InstallMode = DefaultInstallMode
	}
}

// Flags returns CLI flags for installation configuration
func (c *Install) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dest",
			Usage:       "Installation target directory (default: " + DefaultDest() + ")",
			Destination: &c.Dest,
			Sources:     cli.EnvVars("SLIPWAY_DEST"),
		},
		&cli.StringFlag{
			Name:        "staging",
			Usage:       "Base directory for per-run staging (default: OS temp dir)",
			Destination: &c.StagingDir,
			Sources:     cli.EnvVars("SLIPWAY_STAGING"),
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Proceed past soft pre-flight failures such as low disk space",
			Destination: &c.Force,
			Sources:     cli.EnvVars("SLIPWAY_FORCE"),
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Installation mode recorded in the target's .env (default: " + DefaultInstallMode + ")",
			Destination: &c.InstallMode,
			Sources:     cli.EnvVars("SLIPWAY_INSTALL_MODE"),
		},
		&cli.StringFlag{
			Name:        "update-token",
			Usage:       "Token written into the target's .env for application self-updates",
			Destination: &c.UpdateToken,
			Sources:     cli.EnvVars("SLIPWAY_UPDATE_TOKEN"),
		},
		&cli.StringSliceFlag{
			Name:        "marker-ext",
			Usage:       "File extension that marks the application root inside an archive",
			Value:       model.DefaultLayoutMarkers().Extensions,
			Destination: &c.MarkerExts,
			Sources:     cli.EnvVars("SLIPWAY_MARKER_EXT"),
		},
		&cli.StringSliceFlag{
			Name:        "marker-dir",
			Usage:       "Directory name that marks the application root inside an archive",
			Value:       model.DefaultLayoutMarkers().Dirs,
			Destination: &c.MarkerDirs,
			Sources:     cli.EnvVars("SLIPWAY_MARKER_DIR"),
		},
	}
}

// Markers assembles the layout markers the extractor should look for
func (c *Install) Markers() model.LayoutMarkers {
	return model.LayoutMarkers{
		Extensions: c.MarkerExts,
		Dirs:       c.MarkerDirs,
	}
}
