package recording

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/228Labs/negotiator/negotiator/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// TranscriptArchive keeps a copy of every recorded turn in object
// storage, keyed by session and trace, so transcripts survive outside
// the recording service's retention window.
type TranscriptArchive struct {
	client *minio.Client
	bucket string
}

func NewTranscriptArchive(cfg config.Config) (*TranscriptArchive, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &TranscriptArchive{client: client, bucket: bucket}, nil
}

func (a *TranscriptArchive) Record(ctx context.Context, payload Payload) error {
	key := filepath.Join("transcripts", payload.SessionID, fmt.Sprintf("%s.json", payload.TraceID))

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}
