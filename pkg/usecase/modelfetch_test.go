package usecase_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
	"github.com/slipway-sh/slipway/pkg/usecase"
)

// MemoryStore is an in-memory ObjectStore for tests
type MemoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	listErr  error
	getCalls []string
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	var infos []model.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, model.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, key)
	m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, 0, goerr.New("no such key", goerr.V("key", key), goerr.T(types.TagNotFound))
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func modelStore(prefix string, files map[string]string) *MemoryStore {
	objects := map[string][]byte{}
	for name, content := range files {
		objects[prefix+name] = []byte(content)
	}
	return &MemoryStore{objects: objects}
}

func storeFactory(store interfaces.ObjectStore) usecase.StoreFactory {
	return func(ctx context.Context, src *model.ModelSource) (interfaces.ObjectStore, error) {
		return store, nil
	}
}

func TestFetchModel_DownloadsListedObjects(t *testing.T) {
	ctx := context.Background()

	store := modelStore("Mistral-7B-Instruct-v0-3/", map[string]string{
		"config.json":                      `{"arch":"mistral"}`,
		"model-00001-of-00002.safetensors": "shard-one",
		"model-00002-of-00002.safetensors": "shard-two",
		"sub/tokenizer.json":               "tokens",
		".cache/huggingface/x":             "junk",
		"weights.lock":                     "junk",
	})

	uc := usecase.NewModelFetch(storeFactory(store))

	dest := t.TempDir()
	result, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source:      "s3://rfq-models/Mistral-7B-Instruct-v0-3/",
		Dest:        dest,
		Concurrency: 2,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Model, "Mistral-7B-Instruct-v0-3")
	gt.Equal(t, result.Files, 4)
	gt.Equal(t, result.Skipped, 2)
	gt.True(t, !result.Fallback)

	// Nested keys land in matching subdirectories
	content, err := os.ReadFile(filepath.Join(dest, "sub", "tokenizer.json"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "tokens")

	// Bookkeeping objects are filtered before any GET
	_, err = os.Stat(filepath.Join(dest, ".cache"))
	gt.Error(t, err)
	for _, key := range store.getCalls {
		gt.True(t, !strings.Contains(key, ".cache"))
		gt.True(t, !strings.Contains(key, ".lock"))
	}
}

func TestFetchModel_FallbackWhenListingDenied(t *testing.T) {
	ctx := context.Background()

	indexJSON := `{"metadata":{"total_size":100},"weight_map":{` +
		`"layer.0":"model-00001-of-00002.safetensors",` +
		`"layer.1":"model-00002-of-00002.safetensors",` +
		`"layer.2":"model-00001-of-00002.safetensors"}}`

	// tokenizer.json and the other sidecars are deliberately absent
	store := modelStore("Mistral-7B-Instruct-v0-3/", map[string]string{
		"model.safetensors.index.json":     indexJSON,
		"model-00001-of-00002.safetensors": "shard-one",
		"model-00002-of-00002.safetensors": "shard-two",
		"config.json":                      `{}`,
	})
	store.listErr = goerr.New("access denied", goerr.T(types.TagAuth))

	uc := usecase.NewModelFetch(storeFactory(store))

	dest := t.TempDir()
	result, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "s3://rfq-models/Mistral-7B-Instruct-v0-3/",
		Dest:   dest,
	})
	gt.NoError(t, err)
	gt.True(t, result.Fallback)

	// Index, two unique shards and the one present sidecar
	gt.Equal(t, result.Files, 4)

	for _, name := range []string{
		"model.safetensors.index.json",
		"model-00001-of-00002.safetensors",
		"model-00002-of-00002.safetensors",
		"config.json",
	} {
		_, err := os.Stat(filepath.Join(dest, name))
		gt.NoError(t, err)
	}
}

func TestFetchModel_FallbackWithoutIndexFails(t *testing.T) {
	ctx := context.Background()

	store := &MemoryStore{
		objects: map[string][]byte{},
		listErr: goerr.New("access denied", goerr.T(types.TagAuth)),
	}

	uc := usecase.NewModelFetch(storeFactory(store))

	_, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "s3://rfq-models/some-model/",
		Dest:   t.TempDir(),
	})
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("index is unreadable")
}

func TestFetchModel_ListErrorPropagates(t *testing.T) {
	ctx := context.Background()

	store := &MemoryStore{
		listErr: goerr.New("connection refused"),
	}

	uc := usecase.NewModelFetch(storeFactory(store))

	_, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "s3://rfq-models/some-model/",
		Dest:   t.TempDir(),
	})
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("failed to list model objects")
}

func TestFetchModel_EmptyPrefixFails(t *testing.T) {
	ctx := context.Background()

	store := &MemoryStore{objects: map[string][]byte{}}
	uc := usecase.NewModelFetch(storeFactory(store))

	_, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "s3://rfq-models/ghost-model/",
		Dest:   t.TempDir(),
	})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.TagNotFound))
}

func TestFetchModel_InvalidSource(t *testing.T) {
	ctx := context.Background()

	uc := usecase.NewModelFetch(storeFactory(&MemoryStore{}))

	_, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "ftp://example.com/model/",
		Dest:   t.TempDir(),
	})
	gt.Error(t, err)
}

func TestFetchModel_EscapingKeyRejected(t *testing.T) {
	ctx := context.Background()

	store := modelStore("m/", map[string]string{
		"../../etc/passwd": "nope",
	})

	uc := usecase.NewModelFetch(storeFactory(store))

	_, err := uc.FetchModel(ctx, &model.ModelFetchRequest{
		Source: "s3://bucket/m/",
		Dest:   t.TempDir(),
	})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.TagIntegrity))
}
