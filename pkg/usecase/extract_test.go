package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
	"github.com/slipway-sh/slipway/pkg/usecase"
)

func TestNormalizeLayout_MarkerAtTop(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"app.exe":  "binary",
		"data/cfg": "config",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.MarkerFound)
	gt.True(t, !report.Flattened)

	_, err = os.Stat(filepath.Join(dir, "app.exe"))
	gt.NoError(t, err)
}

func TestNormalizeLayout_FlattensWrapper(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"release-v1.2/app.exe":  "binary",
		"release-v1.2/data/cfg": "config",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.MarkerFound)
	gt.True(t, report.Flattened)

	// Payload lifted to the top, wrapper pruned
	_, err = os.Stat(filepath.Join(dir, "app.exe"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "data", "cfg"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "release-v1.2"))
	gt.Error(t, err)
}

func TestNormalizeLayout_FlattensNestedWrappers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"outer/inner/app.exe": "binary",
		"outer/inner/lib.dat": "lib",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.Flattened)

	_, err = os.Stat(filepath.Join(dir, "app.exe"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "outer"))
	gt.Error(t, err)
}

func TestNormalizeLayout_InternalDirMarker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"bundle/_internal/runtime.dat": "runtime",
		"bundle/run.bat":               "start",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.MarkerFound)
	gt.True(t, report.Flattened)

	_, err = os.Stat(filepath.Join(dir, "_internal", "runtime.dat"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "run.bat"))
	gt.NoError(t, err)
}

func TestNormalizeLayout_NoMarker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"docs/readme.md": "# Docs",
	})

	_, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrMarkerNotFound))

	// The tree is left untouched
	_, err = os.Stat(filepath.Join(dir, "docs", "readme.md"))
	gt.NoError(t, err)
}

func TestNormalizeLayout_KeepsWrapperWithStrayFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"wrapper/notes.txt":     "stray",
		"wrapper/inner/app.exe": "binary",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.Flattened)

	// Payload is lifted; the wrapper keeps its stray file
	_, err = os.Stat(filepath.Join(dir, "app.exe"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "wrapper", "notes.txt"))
	gt.NoError(t, err)
}

func TestNormalizeLayout_BreadthFirstPicksShallowestMarker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/deep/nested/other.exe": "deep",
		"b/app.exe":               "shallow",
	})

	report, err := usecase.NormalizeLayout(ctx, dir, model.DefaultLayoutMarkers())
	gt.NoError(t, err)
	gt.True(t, report.Flattened)

	// b is one level down and wins over the marker under a
	content, err := os.ReadFile(filepath.Join(dir, "app.exe"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "shallow")
}

func TestNormalizeLayout_CustomMarkers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"wrap/service.bin": "binary",
	})

	markers := model.LayoutMarkers{Extensions: []string{".bin"}}
	report, err := usecase.NormalizeLayout(ctx, dir, markers)
	gt.NoError(t, err)
	gt.True(t, report.Flattened)

	_, err = os.Stat(filepath.Join(dir, "service.bin"))
	gt.NoError(t, err)
}
