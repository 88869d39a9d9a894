package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// minPartSize is the minimum allowed part size for S3 multipart uploads (5 MiB).
const minPartSize int64 = 5 * 1024 * 1024

// multipartThreshold is the payload size above which Archive switches from
// a single PutObject to the multipart upload manager.
const multipartThreshold = 8 * 1024 * 1024

// SnapshotArchiver writes listing snapshots as JSON documents under a
// date-partitioned key layout:
//
//	snapshots/YYYY/MM/DD/<unix-nanos>.json
type SnapshotArchiver struct {
	client *s3.Client
	bucket string
}

// NewSnapshotArchiver creates an archiver uploading to the given client's
// configured bucket.
func NewSnapshotArchiver(c *Client) *SnapshotArchiver {
	return &SnapshotArchiver{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// Key returns the object key a snapshot is archived under.
func (a *SnapshotArchiver) Key(snap domain.Snapshot) string {
	t := snap.TakenAt.UTC()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%d.json",
		t.Year(), t.Month(), t.Day(), t.UnixNano())
}

// Archive uploads one snapshot. Large payloads go through the multipart
// upload manager, which splits and uploads parts concurrently.
func (a *SnapshotArchiver) Archive(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot: %w", err)
	}

	key := a.Key(snap)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}

	if int64(len(data)) > multipartThreshold {
		uploader := manager.NewUploader(a.client, func(u *manager.Uploader) {
			u.PartSize = minPartSize
		})
		if _, err := uploader.Upload(ctx, input); err != nil {
			return fmt.Errorf("s3blob: multipart upload %s: %w", key, err)
		}
		return nil
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return nil
}
