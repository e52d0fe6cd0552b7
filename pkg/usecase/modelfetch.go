package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/interfaces"
	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
	"github.com/slipway-sh/slipway/pkg/utils/async"
)

const defaultModelConcurrency = 4

const modelIndexName = "model.safetensors.index.json"

// junkFragments mark bucket-side bookkeeping objects that are never
// part of a model
var junkFragments = []string{".cache", ".lock", ".metadata"}

// commonModelFiles are fetched alongside the weight shards when the
// bucket denies listing; not every model ships all of them
var commonModelFiles = []string{
	"config.json",
	"tokenizer.json",
	"tokenizer_config.json",
	"special_tokens_map.json",
	"generation_config.json",
}

type modelFetchUseCase struct {
	storeFactory StoreFactory
	progress     model.ProgressFunc
}

// ModelOption is a functional option for the model fetch use case
type ModelOption func(*modelFetchUseCase)

// WithModelProgress registers a callback receiving progress events
func WithModelProgress(fn model.ProgressFunc) ModelOption {
	return func(uc *modelFetchUseCase) {
		uc.progress = fn
	}
}

// NewModelFetch creates a new instance of ModelFetchUseCase
func NewModelFetch(factory StoreFactory, opts ...ModelOption) interfaces.ModelFetchUseCase {
	uc := &modelFetchUseCase{
		storeFactory: factory,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type modelObject struct {
	key      string
	size     int64
	optional bool
}

// FetchModel mirrors the model files under the source prefix into
// req.Dest. When the bucket allows listing, everything under the
// prefix except bookkeeping objects is downloaded; when listing is
// denied, the safetensors index is used to enumerate the weight shards
// instead. Downloads run concurrently and each file lands atomically.
func (x *modelFetchUseCase) FetchModel(ctx context.Context, req *model.ModelFetchRequest) (*model.ModelFetchResult, error) {
	logger := ctxlog.From(ctx)

	src, err := model.ParseModelSource(req.Source)
	if err != nil {
		return nil, err
	}

	store, err := x.storeFactory(ctx, src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open object store", goerr.V("source", src.String()))
	}

	result := &model.ModelFetchResult{Model: src.Name()}

	if err := os.MkdirAll(req.Dest, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create model dir", goerr.V("dir", req.Dest))
	}

	var objects []modelObject
	listed, err := store.List(ctx, src.Prefix)
	switch {
	case err == nil:
		for _, obj := range listed {
			rel := strings.TrimPrefix(obj.Key, src.Prefix)
			if rel == "" || strings.HasSuffix(obj.Key, "/") {
				continue
			}
			if isJunkObject(obj.Key) {
				result.Skipped++
				continue
			}
			objects = append(objects, modelObject{key: obj.Key, size: obj.Size})
		}

	case goerr.HasTag(err, types.TagAuth):
		logger.Warn("bucket listing denied, falling back to index enumeration", "source", src.String())
		objects, err = x.fallbackObjects(ctx, store, src, req.Dest, result)
		if err != nil {
			return nil, err
		}
		result.Fallback = true

	default:
		return nil, goerr.Wrap(err, "failed to list model objects", goerr.V("source", src.String()))
	}

	if len(objects) == 0 && result.Files == 0 {
		return nil, goerr.New("no model objects found", goerr.V("source", src.String()), goerr.T(types.TagNotFound))
	}

	logger.Info("downloading model",
		"model", result.Model,
		"objects", len(objects),
		"skipped", result.Skipped,
	)

	var files, bytesDone atomic.Int64
	tasks := make([]async.Task, 0, len(objects))
	for i, obj := range objects {
		ev := model.ProgressEvent{
			Phase:      model.PhaseModel,
			Item:       strings.TrimPrefix(obj.key, src.Prefix),
			ItemIndex:  i + 1,
			ItemCount:  len(objects),
			BytesTotal: obj.size,
		}

		tasks = append(tasks, func(ctx context.Context) error {
			n, err := x.fetchObject(ctx, store, src, obj, req.Dest, ev)
			if err != nil {
				if obj.optional && goerr.HasTag(err, types.TagNotFound) {
					ctxlog.From(ctx).Debug("optional model file absent", "key", obj.key)
					return nil
				}
				return err
			}
			files.Add(1)
			bytesDone.Add(n)
			return nil
		})
	}

	concurrency := req.Concurrency
	if concurrency < 1 {
		concurrency = defaultModelConcurrency
	}
	if err := async.NewPool(concurrency).Run(ctx, tasks); err != nil {
		return nil, goerr.Wrap(err, "model download failed", goerr.V("model", result.Model))
	}

	result.Files += int(files.Load())
	result.Bytes += bytesDone.Load()

	logger.Info("model download finished",
		"model", result.Model,
		"files", result.Files,
		"bytes", result.Bytes,
		"fallback", result.Fallback,
	)

	return result, nil
}

func (x *modelFetchUseCase) fetchObject(ctx context.Context, store interfaces.ObjectStore, src *model.ModelSource, obj modelObject, dest string, ev model.ProgressEvent) (int64, error) {
	rel := strings.TrimPrefix(obj.key, src.Prefix)
	destPath := filepath.Join(dest, filepath.FromSlash(rel))

	// Object keys come from outside; never let one climb out of dest
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(dest)+string(os.PathSeparator)) {
		return 0, goerr.New("object key escapes model dir",
			goerr.V("key", obj.key),
			goerr.T(types.TagIntegrity),
		)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, goerr.Wrap(err, "failed to create model subdir", goerr.V("path", destPath))
	}

	rc, size, err := store.Get(ctx, obj.key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	if obj.size == 0 {
		ev.BytesTotal = size
	}

	x.progress.Report(ev)

	n, err := writeAtomic(destPath, rc, obj.size, 0644, func(done int64) {
		ev.BytesDone = done
		x.progress.Report(ev)
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to download model object", goerr.V("key", obj.key))
	}

	ev.BytesDone = n
	x.progress.Report(ev)

	return n, nil
}

// fallbackObjects enumerates the model without ListObjects permission.
// The safetensors index is fetched directly, stored, and its weight map
// yields the shard names; the usual sidecar files are attempted as
// optional extras.
func (x *modelFetchUseCase) fallbackObjects(ctx context.Context, store interfaces.ObjectStore, src *model.ModelSource, dest string, result *model.ModelFetchResult) ([]modelObject, error) {
	rc, _, err := store.Get(ctx, src.Prefix+modelIndexName)
	if err != nil {
		return nil, goerr.Wrap(err, "bucket denies listing and the model index is unreadable",
			goerr.V("key", src.Prefix+modelIndexName),
		)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read model index")
	}

	var index struct {
		WeightMap map[string]string `json:"weight_map"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, goerr.Wrap(err, "malformed model index", goerr.V("key", src.Prefix+modelIndexName))
	}

	n, err := writeAtomic(filepath.Join(dest, modelIndexName), bytes.NewReader(data), 0, 0644, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store model index")
	}
	result.Files++
	result.Bytes += n

	shards := map[string]bool{}
	for _, shard := range index.WeightMap {
		shards[shard] = true
	}

	var objects []modelObject
	for shard := range shards {
		objects = append(objects, modelObject{key: src.Prefix + shard})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].key < objects[j].key })

	for _, name := range commonModelFiles {
		objects = append(objects, modelObject{key: src.Prefix + name, optional: true})
	}

	return objects, nil
}

func isJunkObject(key string) bool {
	for _, frag := range junkFragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}
