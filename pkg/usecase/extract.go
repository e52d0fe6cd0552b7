package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

func (x *installUseCase) extractArchive(ctx context.Context, archive *model.LogicalArchive, treeDir string) (string, error) {
	logger := ctxlog.From(ctx)

	var failures []string
	for _, extractor := range x.extractors {
		if !extractor.Supports(archive.Name) {
			continue
		}
		if !extractor.Available() {
			logger.Debug("extraction strategy unavailable", "strategy", extractor.Name())
			continue
		}

		logger.Debug("trying extraction strategy", "strategy", extractor.Name(), "archive", archive.Name)
		if err := extractor.Extract(ctx, archive.Path, treeDir); err != nil {
			logger.Warn("extraction strategy failed",
				"strategy", extractor.Name(),
				"archive", archive.Name,
				"error", err,
			)
			failures = append(failures, extractor.Name()+": "+err.Error())

			// A failed attempt may leave a half-written tree behind
			if err := resetDir(treeDir); err != nil {
				return "", goerr.Wrap(err, "failed to reset extraction dir")
			}
			continue
		}

		return extractor.Name(), nil
	}

	return "", goerr.Wrap(types.ErrNoExtractor, "all extraction strategies exhausted",
		goerr.V("archive", archive.Name),
		goerr.V("failures", failures),
	)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// NormalizeLayout lifts the application payload to the top of dir when
// the archive wrapped it in intermediate directories. The payload root
// is the first directory, breadth-first from dir, containing a layout
// marker; its entries are moved to dir and the emptied wrapper chain
// is pruned. Returns whether a marker was found and whether the tree
// was actually flattened. A tree with no marker anywhere is left
// untouched and reported via ErrMarkerNotFound.
func NormalizeLayout(ctx context.Context, dir string, markers model.LayoutMarkers) (*model.ExtractReport, error) {
	root, err := findPayloadRoot(ctx, dir, markers)
	if err != nil {
		return nil, err
	}
	if root == "" {
		return &model.ExtractReport{}, types.ErrMarkerNotFound
	}

	report := &model.ExtractReport{MarkerFound: true}
	if root == dir {
		return report, nil
	}

	if err := liftPayload(dir, root); err != nil {
		return nil, goerr.Wrap(err, "failed to flatten layout",
			goerr.V("root", root),
		)
	}
	report.Flattened = true

	return report, nil
}

func findPayloadRoot(ctx context.Context, dir string, markers model.LayoutMarkers) (string, error) {
	queue := []string{dir}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return "", goerr.Wrap(err, "layout scan canceled")
		}

		current := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(current)
		if err != nil {
			return "", goerr.Wrap(err, "failed to scan extracted tree", goerr.V("dir", current))
		}

		var subdirs []string
		for _, entry := range entries {
			if isMarker(entry.Name(), entry.IsDir(), markers) {
				return current, nil
			}
			if entry.IsDir() {
				subdirs = append(subdirs, filepath.Join(current, entry.Name()))
			}
		}

		sort.Strings(subdirs)
		queue = append(queue, subdirs...)
	}

	return "", nil
}

func isMarker(name string, isDir bool, markers model.LayoutMarkers) bool {
	if isDir {
		for _, d := range markers.Dirs {
			if strings.EqualFold(name, d) {
				return true
			}
		}
		return false
	}

	ext := filepath.Ext(name)
	for _, e := range markers.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// liftPayload moves root's entries to the top of dir. The root is
// first renamed aside so its entries cannot collide with the wrapper
// chain, then each emptied wrapper directory is pruned bottom-up.
func liftPayload(dir, root string) error {
	holding := filepath.Join(dir, ".flatten")
	if err := os.Rename(root, holding); err != nil {
		return err
	}

	for p := filepath.Dir(root); p != dir; p = filepath.Dir(p) {
		if err := os.Remove(p); err != nil {
			// Wrapper still holds stray files; keep it
			break
		}
	}

	entries, err := os.ReadDir(holding)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src := filepath.Join(holding, entry.Name())
		dst := filepath.Join(dir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}

	return os.Remove(holding)
}

func countTree(dir string) (int, int64) {
	var files int
	var bytes int64
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files++
		if info, err := d.Info(); err == nil {
			bytes += info.Size()
		}
		return nil
	})
	return files, bytes
}
