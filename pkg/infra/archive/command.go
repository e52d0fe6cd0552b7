package archive

import (
	"context"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
)

// commandExtractor shells out to an installed archiver binary
type commandExtractor struct {
	name string
	bin  string
	exts []string
	args func(archivePath, destDir string) []string
}

// NewUnzipCommand extracts ZIP archives with the unzip binary
func NewUnzipCommand() interfaces.ArchiveExtractor {
	return &commandExtractor{
		name: "unzip",
		bin:  "unzip",
		exts: []string{".zip"},
		args: func(archivePath, destDir string) []string {
			return []string{"-q", "-o", archivePath, "-d", destDir}
		},
	}
}

// NewTarCommand extracts gzipped tarballs with the tar binary
func NewTarCommand() interfaces.ArchiveExtractor {
	return &commandExtractor{
		name: "tar",
		bin:  "tar",
		exts: []string{".tar.gz", ".tgz"},
		args: func(archivePath, destDir string) []string {
			return []string{"-xzf", archivePath, "-C", destDir}
		},
	}
}

// NewBsdtarCommand extracts both ZIP archives and tarballs with bsdtar,
// which is present by default on macOS and recent Windows
func NewBsdtarCommand() interfaces.ArchiveExtractor {
	return &commandExtractor{
		name: "bsdtar",
		bin:  "bsdtar",
		exts: []string{".zip", ".tar.gz", ".tgz", ".tar"},
		args: func(archivePath, destDir string) []string {
			return []string{"-x", "-f", archivePath, "-C", destDir}
		},
	}
}

func (x *commandExtractor) Name() string {
	return x.name
}

func (x *commandExtractor) Available() bool {
	_, err := exec.LookPath(x.bin)
	return err == nil
}

func (x *commandExtractor) Supports(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range x.exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (x *commandExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	cmd := exec.CommandContext(ctx, x.bin, x.args(archivePath, destDir)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return goerr.Wrap(err, "archiver command failed",
			goerr.V("command", x.bin),
			goerr.V("archive", archivePath),
			goerr.V("output", truncateOutput(output)))
	}
	return nil
}

// truncateOutput keeps command output in errors readable
func truncateOutput(output []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(output))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
