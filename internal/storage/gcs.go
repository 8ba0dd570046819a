package storage

import (
	"context"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
)

// GCSStorage implements Client using Google Cloud Storage.
type GCSStorage struct {
	keyed
	client *gcs.Client
	bucket string
}

// NewGCSStorage creates a GCS-backed Client.
// It uses Application Default Credentials (works with Workload Identity, SA keys, gcloud auth).
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "create gcs client")
	}
	s := &GCSStorage{client: client, bucket: bucket}
	s.keyed = keyed{b: s}
	return s, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return eris.Wrapf(err, "gcs write %s", key)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "gcs close %s", key)
	}
	return nil
}

func (s *GCSStorage) get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if eris.Is(err, gcs.ErrObjectNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "gs://%s/%s", s.bucket, key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "gcs read %s", key)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "gcs read %s", key)
	}
	return data, nil
}

func (s *GCSStorage) list(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix, Delimiter: "/"})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "gcs list %s", prefix)
		}
		if attrs.Name != "" {
			keys = append(keys, attrs.Name)
		}
	}
	return keys, nil
}
