// Package storage keeps snapshots and run results in blob storage: the local
// filesystem for development, GCS or S3 in production.
package storage

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/config"
	"github.com/solarrank/solarrank/pkg/pipeline"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = eris.New("object not found")

// Object kinds, also the middle path segment of every key.
const (
	KindSnapshots = "snapshots"
	KindRuns      = "runs"
)

// Client abstracts blob storage for snapshots and runs. Objects are keyed
// <namespace>/<kind>/<id>.json.
type Client interface {
	PutSnapshot(ctx context.Context, namespace, snapshotID string, data []byte) error
	GetSnapshot(ctx context.Context, namespace, snapshotID string) ([]byte, error)
	PutRun(ctx context.Context, namespace, runID string, data []byte) error
	GetRun(ctx context.Context, namespace, runID string) ([]byte, error)
	// List returns the IDs stored under namespace/kind, sorted.
	List(ctx context.Context, namespace, kind string) ([]string, error)
}

// blobs is the part each backend implements; keyed wraps it into a Client.
type blobs interface {
	put(ctx context.Context, key string, data []byte) error
	get(ctx context.Context, key string) ([]byte, error)
	list(ctx context.Context, prefix string) ([]string, error)
}

type keyed struct {
	b blobs
}

func objectKey(namespace, kind, id string) string {
	return path.Join(namespace, kind, id+".json")
}

func (k keyed) PutSnapshot(ctx context.Context, namespace, snapshotID string, data []byte) error {
	return k.b.put(ctx, objectKey(namespace, KindSnapshots, snapshotID), data)
}

func (k keyed) GetSnapshot(ctx context.Context, namespace, snapshotID string) ([]byte, error) {
	return k.b.get(ctx, objectKey(namespace, KindSnapshots, snapshotID))
}

func (k keyed) PutRun(ctx context.Context, namespace, runID string, data []byte) error {
	return k.b.put(ctx, objectKey(namespace, KindRuns, runID), data)
}

func (k keyed) GetRun(ctx context.Context, namespace, runID string) ([]byte, error) {
	return k.b.get(ctx, objectKey(namespace, KindRuns, runID))
}

func (k keyed) List(ctx context.Context, namespace, kind string) ([]string, error) {
	prefix := path.Join(namespace, kind) + "/"
	keys, err := k.b.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// New picks the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Client, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		if cfg.LocalDir == "" {
			return nil, eris.New("storage: local backend needs local_dir")
		}
		return NewLocalStorage(cfg.LocalDir), nil
	case "gcs":
		if cfg.Bucket == "" {
			return nil, eris.New("storage: gcs backend needs a bucket")
		}
		return NewGCSStorage(ctx, cfg.Bucket)
	case "s3":
		if cfg.Bucket == "" {
			return nil, eris.New("storage: s3 backend needs a bucket")
		}
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	default:
		return nil, eris.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// Close releases backend resources held by c, if any.
func Close(c Client) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SaveSnapshot encodes and stores a snapshot under its own ID.
func SaveSnapshot(ctx context.Context, c Client, namespace string, snap *building.Snapshot) error {
	data, err := building.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if err := c.PutSnapshot(ctx, namespace, snap.ID, data); err != nil {
		return eris.Wrapf(err, "storing snapshot %s", snap.ID)
	}
	return nil
}

// LoadSnapshot fetches and decodes a snapshot.
func LoadSnapshot(ctx context.Context, c Client, namespace, snapshotID string) (*building.Snapshot, error) {
	data, err := c.GetSnapshot(ctx, namespace, snapshotID)
	if err != nil {
		return nil, eris.Wrapf(err, "loading snapshot %s", snapshotID)
	}
	return building.UnmarshalSnapshot(data)
}

// SaveRun encodes and stores a run result under its run ID.
func SaveRun(ctx context.Context, c Client, namespace string, res *pipeline.Result) error {
	data, err := pipeline.MarshalResult(res)
	if err != nil {
		return err
	}
	if err := c.PutRun(ctx, namespace, res.RunID, data); err != nil {
		return eris.Wrapf(err, "storing run %s", res.RunID)
	}
	return nil
}

// LoadRun fetches and decodes a run result.
func LoadRun(ctx context.Context, c Client, namespace, runID string) (*pipeline.Result, error) {
	data, err := c.GetRun(ctx, namespace, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "loading run %s", runID)
	}
	return pipeline.UnmarshalResult(data)
}
