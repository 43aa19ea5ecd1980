package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/charbodjc/daddy-caddy/internal/config"
)

// ObjectPutter is the part of the S3 client the uploader uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BucketUploader stores export documents in an S3-compatible bucket (AWS S3, Cloudflare
// R2, MinIO).
type BucketUploader struct {
	client ObjectPutter
	bucket string
}

// NewBucketUploader builds an uploader from cfg. A custom endpoint switches to path-style
// addressing, which R2 and MinIO expect.
func NewBucketUploader(ctx context.Context, cfg config.BackupConfig) (*BucketUploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("backup bucket is not configured: BACKUP_BUCKET, BACKUP_ACCESS_KEY_ID and BACKUP_SECRET_ACCESS_KEY are required")
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewBucketUploaderWithClient(client, cfg.Bucket), nil
}

func NewBucketUploaderWithClient(client ObjectPutter, bucket string) *BucketUploader {
	return &BucketUploader{client: client, bucket: bucket}
}

// Key is the object key a document is stored under.
func Key(d *Document) string {
	return "backups/daddy-caddy-" + d.ExportDate.UTC().Format("20060102T150405Z") + ".json"
}

// UploadResult identifies a stored backup.
type UploadResult struct {
	Bucket string
	Key    string
	ETag   string
}

// Upload writes d to the bucket.
func (u *BucketUploader) Upload(ctx context.Context, d *Document) (*UploadResult, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	key := Key(d)
	out, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading backup (key: %s): %w", key, err)
	}

	res := &UploadResult{Bucket: u.bucket, Key: key}
	if out.ETag != nil {
		// S3-compatible APIs quote the ETag.
		res.ETag = strings.Trim(*out.ETag, `"`)
	}
	return res, nil
}
