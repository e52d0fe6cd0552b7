package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/slipway-sh/slipway/pkg/usecase"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		gt.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestMergeTree_FreshTarget(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	target := t.TempDir()

	writeTree(t, src, map[string]string{
		"app.exe":          "binary",
		"data/config.json": `{"a":1}`,
		"data/sub/file":    "nested",
	})

	stats, err := usecase.MergeTree(ctx, src, target)
	gt.NoError(t, err)
	gt.Equal(t, stats.Files, 3)
	gt.Equal(t, stats.Dirs, 2)
	gt.Equal(t, stats.Bytes, int64(len("binary")+len(`{"a":1}`)+len("nested")))

	content, err := os.ReadFile(filepath.Join(target, "data", "sub", "file"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "nested")
}

func TestMergeTree_OverwritesExistingFiles(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	target := t.TempDir()

	writeTree(t, target, map[string]string{
		"app.exe":   "old binary",
		"local.txt": "operator data",
	})
	writeTree(t, src, map[string]string{
		"app.exe": "new binary",
	})

	_, err := usecase.MergeTree(ctx, src, target)
	gt.NoError(t, err)

	// Payload files replace their counterparts
	content, err := os.ReadFile(filepath.Join(target, "app.exe"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "new binary")

	// Files the payload does not mention survive
	content, err = os.ReadFile(filepath.Join(target, "local.txt"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "operator data")
}

func TestMergeTree_Idempotent(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	target := t.TempDir()

	writeTree(t, src, map[string]string{
		"app.exe":  "binary",
		"data/cfg": "config",
	})

	first, err := usecase.MergeTree(ctx, src, target)
	gt.NoError(t, err)

	second, err := usecase.MergeTree(ctx, src, target)
	gt.NoError(t, err)
	gt.Equal(t, first.Files, second.Files)
	gt.Equal(t, first.Bytes, second.Bytes)
}

func TestMergeTree_PreservesFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	ctx := context.Background()
	src := t.TempDir()
	target := t.TempDir()

	path := filepath.Join(src, "run.sh")
	gt.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))

	_, err := usecase.MergeTree(ctx, src, target)
	gt.NoError(t, err)

	info, err := os.Stat(filepath.Join(target, "run.sh"))
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0755))
}

func TestMergeTree_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"a": "1"})

	_, err := usecase.MergeTree(ctx, src, t.TempDir())
	gt.Error(t, err)
}
